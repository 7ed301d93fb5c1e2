package flashd

// favicon is the 555-byte PNG payload returned for GET/HEAD favicon.ico
// requests, carried byte-for-byte from original_source/WebServer (see
// SPEC_FULL.md Part D) rather than read from disk on every request.
var favicon = []byte{
0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff, 0x61, 0x00, 0x00, 0x00,
	0x19, 0x74, 0x45, 0x58, 0x74, 0x53, 0x6f, 0x66, 0x74, 0x77, 0x61, 0x72,
	0x65, 0x00, 0x41, 0x64, 0x6f, 0x62, 0x65, 0x20, 0x49, 0x6d, 0x61, 0x67,
	0x65, 0x52, 0x65, 0x61, 0x64, 0x79, 0x71, 0xc9, 0x65, 0x3c, 0x00, 0x00,
	0x01, 0xcd, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda, 0x94, 0x93, 0x39, 0x48,
	0x03, 0x41, 0x14, 0x86, 0xff, 0x5d, 0x62, 0xa7, 0x04, 0x52, 0xc4, 0x6d,
	0x22, 0x1e, 0xa0, 0x46, 0x24, 0x08, 0x16, 0x16, 0x76, 0x0a, 0x36, 0xba,
	0x4a, 0x9a, 0x80, 0x08, 0x41, 0xb4, 0x71, 0x85, 0x58, 0x89, 0x47, 0xb0,
	0x49, 0xa9, 0x51, 0x24, 0xcd, 0xa6, 0x08, 0xa4, 0x48, 0x63, 0x91, 0x42,
	0x0b, 0xaf, 0x56, 0xc1, 0x46, 0xb4, 0x15, 0xcf, 0x22, 0x58, 0x98, 0x0b,
	0x54, 0x48, 0x8a, 0x64, 0x93, 0x8d, 0xfb, 0x46, 0x67, 0xc9, 0x1a, 0x14,
	0x7d, 0xf0, 0x66, 0x76, 0x66, 0xdf, 0x7c, 0xef, 0xe7, 0x67, 0x46, 0xa8,
	0xd5, 0x6a, 0x48, 0x24, 0x12, 0x2a, 0x00, 0x05, 0xbf, 0x47, 0xd4, 0xef,
	0xf7, 0x2f, 0x36, 0xec, 0x12, 0x20, 0x1e, 0x8f, 0xd7, 0xaa, 0xd5, 0xea,
	0xaf, 0x49, 0x35, 0x46, 0xaa, 0x54, 0x5f, 0x9f, 0x22, 0x41, 0x2a, 0x95,
	0x0a, 0x83, 0xe5, 0x72, 0x39, 0x64, 0xb3, 0x59, 0x96, 0x99, 0x4c, 0x06,
	0xe9, 0x74, 0x9a, 0x25, 0x85, 0x2c, 0xcb, 0x54, 0xa7, 0xc4, 0x62, 0x31,
	0xb5, 0x5e, 0x00, 0x03, 0x68, 0x9a, 0xc6, 0x16, 0x82, 0x20, 0x58, 0x52,
	0x14, 0x45, 0x36, 0x53, 0x94, 0xcb, 0x65, 0x78, 0xbd, 0x5e, 0xaa, 0x55,
	0x54, 0x23, 0x4c, 0xc0, 0xe0, 0xe2, 0xc1, 0x8f, 0x00, 0x9e, 0xbc, 0x09,
	0x41, 0x7c, 0x3e, 0x1f, 0x83, 0x44, 0x22, 0x11, 0xd5, 0x54, 0x40, 0x3f,
	0x38, 0x80, 0x77, 0xe5, 0x33, 0x07, 0xb8, 0x5c, 0x2e, 0x48, 0x92, 0x04,
	0x87, 0xc3, 0x81, 0x40, 0x20, 0x40, 0x67, 0x98, 0xe9, 0x36, 0x1a, 0xa6,
	0x67, 0x15, 0x04, 0xe3, 0xd7, 0xc8, 0xbd, 0x15, 0xe1, 0x69, 0xb7, 0x43,
	0xab, 0xea, 0x78, 0x2f, 0x6a, 0x58, 0x92, 0xbb, 0x18, 0x20, 0x9f, 0xcf,
	0x33, 0xc3, 0xb8, 0xe9, 0x4e, 0xa7, 0xd3, 0x6c, 0x4a, 0x00, 0x69, 0x36,
	0x7c, 0x8e, 0xe1, 0xfe, 0x56, 0x84, 0xe7, 0x3c, 0x9f, 0x72, 0x2b, 0x3a,
	0x42, 0x7b, 0x37, 0x66, 0x77, 0xae, 0x8e, 0x0e, 0xf3, 0xbd, 0x52, 0xa9,
	0x64, 0x02, 0x42, 0xaf, 0x85, 0x32, 0x66, 0x46, 0xba, 0x0c, 0xd9, 0x9f,
	0x1d, 0x9a, 0x6c, 0x22, 0xe6, 0xc7, 0x3a, 0x2c, 0x80, 0xef, 0xc1, 0x15,
	0x90, 0x07, 0x93, 0xa2, 0x28, 0xa0, 0x53, 0x6a, 0xb1, 0xb8, 0xdf, 0x29,
	0x35, 0x43, 0x0e, 0x3f, 0x58, 0xfc, 0x98, 0xda, 0x79, 0x6a, 0x50, 0x40,
	0x00, 0x87, 0xae, 0x1b, 0x17, 0x42, 0xb4, 0x3a, 0x3f, 0xbe, 0x79, 0xc7,
	0x0a, 0x26, 0xb6, 0xee, 0xd9, 0x9a, 0x60, 0x14, 0x93, 0xdb, 0x8f, 0x0d,
	0x0a, 0x2e, 0xe9, 0x23, 0x95, 0x29, 0x58, 0x00, 0x27, 0xeb, 0x6e, 0x56,
	0x70, 0xbc, 0xd6, 0xcb, 0xd6, 0x47, 0xab, 0x3d, 0x6c, 0x7d, 0xb8, 0xd2,
	0xdd, 0xa0, 0x60, 0x83, 0xba, 0xef, 0x5f, 0xa4, 0xea, 0xcc, 0x02, 0x4e,
	0xae, 0x5e, 0x70, 0x1a, 0xec, 0xb3, 0x40, 0x39, 0xac, 0xfe, 0xf2, 0x91,
	0x89, 0x67, 0x91, 0x85, 0x21, 0xa8, 0x87, 0xb7, 0x58, 0x7e, 0x7e, 0x85,
	0xbb, 0xcd, 0x4e, 0x4e, 0x62, 0x74, 0x40, 0xfa, 0x93, 0x89, 0xec, 0x1e,
	0xec, 0x86, 0x02, 0x48, 0x26, 0x93, 0xd0, 0x75, 0x1d, 0x7f, 0x09, 0x32,
	0x95, 0xbf, 0x1f, 0xdb, 0xd7, 0x63, 0x8a, 0x1a, 0xf7, 0x5c, 0xc1, 0xff,
	0x22, 0x4a, 0xc3, 0x87, 0x00, 0x03, 0x00, 0x4b, 0xbb, 0xf8, 0xd6, 0x2a,
	0x76, 0x98, 0x49, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,}
