// Package tiffmeta reads and writes the metadata layer of TIFF files: the
// header, the chain of Image File Directories (IFDs) and their typed fields.
//
// Pixel data is never interpreted. Strips and tiles are copied as opaque byte
// ranges with Reader.ReadRawRange and Writer.WriteRawBytes, and compression or
// photometric interpretation are only carried as numbers.
//
// A Reader decodes the whole IFD chain up front into Directory values that no
// longer depend on the stream. A Writer streams IFDs one at a time, patching
// the previous next IFD offset after each one, so strip data can be written
// between IFDs.
package tiffmeta
