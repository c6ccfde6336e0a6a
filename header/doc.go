// Package header parses and serializes the textual header block of SPICE
// raw waveform files.
//
// The grammar is a sequence of "Key: value" lines followed by a Variables
// block and a body marker:
//
//	Title: * C:\sim\rc.asc
//	Date: Mon Apr 14 09:15:17 2025
//	Plotname: Transient Analysis
//	Flags: real forward
//	No. Variables: 3
//	No. Points: 1024
//	Variables:
//		0	time	time
//		1	V(out)	voltage
//		2	I(R1)	device_current
//	Binary:
//
// Keys are matched case-insensitively and both \n and \r\n line endings are
// accepted. Unrecognized keys and unrecognized Flags tokens are preserved
// verbatim so a parsed header can be re-serialized without losing vendor
// metadata. Parse reports the byte offset of the first body byte in the
// original byte stream, which every downstream decoder depends on.
//
// Headers are plain UTF-8 for most simulators; LTspice writes UTF-16-LE.
// DetectEncoding sniffs the difference (a NUL second byte means UTF-16-LE)
// and Parse decodes transparently, falling back to Windows-1252 for stray
// high bytes the way the simulators' own tooling does.
package header
