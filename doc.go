// Package docxtpl renders DOCX templates with tag values and optionally
// converts the result to PDF with LibreOffice.
//
// # Quick Start
//
// Create a pipeline and run a request:
//
//	p, err := docxtpl.NewPipeline()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := p.Run(ctx, docxtpl.Request{
//	    TemplatePath: "assets/CH0001/templates/consent.docx",
//	    LogoPath:     "assets/CH0001/logo/logo.png",
//	    Values:       docxtpl.Values{"name": "Ada"},
//	    Output:       docxtpl.OutputPDF,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("consent"+res.Kind.Extension(), res.Data, 0o644)
//
// # Template Syntax
//
// Tags follow the docxtemplater conventions:
//
//	{name}              text, XML-escaped; newlines become line breaks
//	{%name}             image, from inline base64 data or a file path
//	{#items}...{/items} section, repeated per element of a sequence
//	{^items}...{/items} inverted section, rendered when the value is falsy
//	{.}                 the current loop element
//	{client.name}       dotted lookup into nested maps
//
// A tag with no value fails with ErrMissingTagValue; nothing is silently
// blanked. Tags split across runs by the word processor are gathered before
// rendering.
//
// # Images
//
// Image values are either inline data such as
// "data:image/png;base64,iVBOR..." or a file path. A malformed inline payload
// fails with ErrMalformedEncodedPayload and is never retried as a path.
// Images display at their intrinsic pixel size unless the tag has a size
// override; "logo" is fixed to 90x90 by default (see WithSizeOverrides).
//
// # Conversion
//
// PDF output runs soffice headless in a scratch directory that is removed
// on every exit path. Conversions are bounded by WithConverterTimeout and
// WithMaxConversions, and a cancelled context kills the whole process group.
//
// # Errors
//
// Failures wrap the sentinels in errors.go and can be tested with errors.Is:
//
//	if errors.Is(err, docxtpl.ErrMissingTagValue) {
//	    // the values lack a tag the template uses
//	}
package docxtpl
