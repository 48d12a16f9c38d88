// Package pipeline parses WordprocessingML parts into a raw-preserving tree
// and renders docxtemplater-style tags against a set of values.
//
// Parsing runs in three passes over each part:
//
//  1. tokenize: the markup becomes a tree of element, text and raw nodes
//     that remembers every original byte, so untouched markup is written
//     back exactly as read;
//  2. normalize: tags whose braces were split across runs by the word
//     processor are gathered into the w:t holding their opening brace,
//     then cut out into tag nodes;
//  3. lift: every {#name}/{^name} ... {/name} pair is turned into a loop
//     node, innermost first, choosing the repeated region the way
//     docxtemplater does with paragraphLoop enabled.
//
// Rendering walks the tree once per call with a scope stack; the parsed
// Template is never mutated and may be rendered concurrently.
package pipeline
