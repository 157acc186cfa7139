package wasm

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01

	// HeaderSize covers the magic number and version fields.
	HeaderSize = 8
)

// SectionID is the varuint identifier that opens every module section.
type SectionID uint32

// Section IDs define the binary identifiers for each module section.
const (
	SectionCustom    SectionID = 0  // Custom section (can appear anywhere)
	SectionType      SectionID = 1  // Type section (function signatures)
	SectionImport    SectionID = 2  // Import section
	SectionFunction  SectionID = 3  // Function section (type indices)
	SectionTable     SectionID = 4  // Table section
	SectionMemory    SectionID = 5  // Memory section
	SectionGlobal    SectionID = 6  // Global section
	SectionExport    SectionID = 7  // Export section
	SectionStart     SectionID = 8  // Start section
	SectionElement   SectionID = 9  // Element section
	SectionCode      SectionID = 10 // Code section (function bodies)
	SectionData      SectionID = 11 // Data section
	SectionDataCount SectionID = 12 // Data count section (bulk memory)
	SectionTag       SectionID = 13 // Tag section (exception handling)
)

var sectionNames = map[SectionID]string{
	SectionCustom:    "custom",
	SectionType:      "type",
	SectionImport:    "import",
	SectionFunction:  "function",
	SectionTable:     "table",
	SectionMemory:    "memory",
	SectionGlobal:    "global",
	SectionExport:    "export",
	SectionStart:     "start",
	SectionElement:   "element",
	SectionCode:      "code",
	SectionData:      "data",
	SectionDataCount: "datacount",
	SectionTag:       "tag",
}

// String returns the conventional lowercase section name.
func (id SectionID) String() string {
	if s, ok := sectionNames[id]; ok {
		return s
	}
	return "unknown"
}

// Custom section names that carry debug or link-time information.
const (
	CustomLinking          = "linking"
	CustomSourceMappingURL = "sourceMappingURL"

	debugPrefix      = ".debug_"
	relocDebugPrefix = "reloc..debug_"
)
