// Package registry maps request paths to the plugin responsible for them.
//
// Every channel owns one Registry, chosen by the channel's sharing mode:
//
//   - ExclusiveRegistry holds a single plugin answering every path.
//   - ExactMatchRegistry maps full path strings to plugins; the last
//     registration at a path wins and lookups never fall back.
//   - PrefixMatchRegistry keeps a tree of path segments and resolves a path
//     to the plugin registered at its longest registered prefix. A path owned
//     by one plugin cannot be taken over by another.
//
// Plugins are compared with Plugin.IsPlugin, never with ==, so wrapped or
// proxied plugins are recognised as the plugin they wrap.
//
// All registries are safe for concurrent use. Lookups take a shared lock and
// never observe a partially applied registration or removal.
package registry
