package shader

// typeLayout is the byte size and alignment of a host-shareable WGSL type.
type typeLayout struct {
	size  uint64
	align uint64
}

// resourceDecl is one `@group(G) @binding(B) var<space> name: type;` module-scope declaration.
type resourceDecl struct {
	group    int
	binding  int
	space    string
	name     string
	typeName string
}

// structDecl is a WGSL struct reduced to its member types in declaration order.
type structDecl struct {
	name    string
	members []string
}
