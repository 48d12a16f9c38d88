// Package docx reads and writes the WordprocessingML package of a .docx file.
//
// An Archive keeps every zip entry in its original order with its original
// header, so parts that are never touched are written back unchanged. New
// entries get a fixed modification time: rendering the same input twice
// yields byte-identical archives.
//
// Besides raw part access the package knows just enough of the Open
// Packaging Conventions to embed an image: it adds the media part, the
// relationship from the referencing part, the content-type default for the
// extension, and builds the inline drawing markup that points at it.
package docx
