package types

// Target describes the machine the IR is being built for: the
// measurements that change Type sizing (pointer/long width) and the
// calling-convention facts the builder needs to decide whether an
// aggregate argument or return value must be spilled to a local.
//
// The three Arch values cover the architectures named in scope:
// x86-64 and AArch64 (register ABI tables sourced from
// golang.org/x/arch's x86asm/arm64asm register enumerations, see
// DESIGN.md) and RV32I (32-bit pointers, no vector ABI).
type Target struct {
	Arch string // "x86_64", "arm64", "rv32i"
	OS   string // "linux", "darwin"

	PointerSize int64 // bytes
	LongSize    int64 // bytes: 8 on LP64 (linux/darwin amd64+arm64), 4 on ILP32 rv32i

	// IntArgRegs is the number of integer/pointer argument registers
	// available before arguments spill to the stack. The IR builder does
	// not read it; target.IntArgRegName uses it to name the register a
	// parameter arrives in for the driver's -S dump.
	IntArgRegs int
}

// X8664Linux, X8664Darwin, ARM64Linux, ARM64Darwin, RV32ILinux are the
// target descriptors the driver's -arch/-target resolution produces.
var (
	X8664Linux  = &Target{Arch: "x86_64", OS: "linux", PointerSize: 8, LongSize: 8, IntArgRegs: 6}
	X8664Darwin = &Target{Arch: "x86_64", OS: "darwin", PointerSize: 8, LongSize: 8, IntArgRegs: 6}
	ARM64Linux  = &Target{Arch: "arm64", OS: "linux", PointerSize: 8, LongSize: 8, IntArgRegs: 8}
	ARM64Darwin = &Target{Arch: "arm64", OS: "darwin", PointerSize: 8, LongSize: 8, IntArgRegs: 8}
	RV32ILinux  = &Target{Arch: "rv32i", OS: "linux", PointerSize: 4, LongSize: 4, IntArgRegs: 8}
)

// ByTriple resolves a (arch, os) pair to a Target, or nil if unsupported.
// "eep" is recognised but intentionally unsupported (§9 Open Question):
// the spec requires no EEP implementation, and ByTriple surfaces that as
// a nil result rather than a panic so callers produce a normal user
// error.
func ByTriple(arch, os string) *Target {
	switch {
	case arch == "x86_64" && os == "linux":
		return X8664Linux
	case arch == "x86_64" && os == "darwin":
		return X8664Darwin
	case arch == "arm64" && os == "linux":
		return ARM64Linux
	case arch == "arm64" && os == "darwin":
		return ARM64Darwin
	case arch == "rv32i" && os == "linux":
		return RV32ILinux
	case arch == "eep":
		return nil
	default:
		return nil
	}
}

// PointerIntPrim returns the canonical pointer-sized integer primitive for
// td — used by pointer-difference and pointer<->integer cast lowering.
func (td *Target) PointerIntPrim() Primitive {
	if td.PointerSize == 4 {
		return I32
	}
	return I64
}
