// Package render groups the output renderers for projected flow views.
//
// The only renderer today is [nodelink], which turns flow, ego and map
// payloads into Graphviz DOT and lays DOT out to SVG in-process.
//
// [nodelink]: github.com/matzehuels/flowlens/pkg/render/nodelink
package render
