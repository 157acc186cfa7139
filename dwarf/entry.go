package dwarf

// Entry is one row of the line-number table.
//
// Address is relative to the start of the code section body. A Line of 0
// means the address has no source position. EOS marks the last entry of a
// contiguous run of code.
type Entry struct {
	FilePath string `msgpack:"f"`
	Address  int64  `msgpack:"a"`
	Line     int32  `msgpack:"l"`
	Column   int32  `msgpack:"c"`
	EOS      bool   `msgpack:"e"`
}
