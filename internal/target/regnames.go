package target

import (
	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"

	"cc11/internal/types"
)

// sysvIntArgs and aapcsIntArgs are the integer/pointer argument-register
// orders for the two LP64 ABIs cc11 targets, expressed as
// golang.org/x/arch's own register enumerations rather than a
// hand-maintained string table — the parameter-materialisation
// diagnostics the driver prints under -flog= name the ABI slot a
// parameter will be bound to using these.
var (
	sysvIntArgs  = []x86asm.Reg{x86asm.RDI, x86asm.RSI, x86asm.RDX, x86asm.RCX, x86asm.R8, x86asm.R9}
	aapcsIntArgs = []arm64asm.Reg{arm64asm.X0, arm64asm.X1, arm64asm.X2, arm64asm.X3, arm64asm.X4, arm64asm.X5, arm64asm.X6, arm64asm.X7}
)

// IntArgRegName returns the name of the i'th integer/pointer argument
// register for td's ABI, or "" once arguments have spilled past the
// register file onto the stack (i >= td.IntArgRegs) or for a target
// (RV32I) whose register table cc11 does not model via x/arch.
func IntArgRegName(td *types.Target, i int) string {
	if i < 0 || i >= td.IntArgRegs {
		return ""
	}
	switch td.Arch {
	case "x86_64":
		if i < len(sysvIntArgs) {
			return sysvIntArgs[i].String()
		}
	case "arm64":
		if i < len(aapcsIntArgs) {
			return aapcsIntArgs[i].String()
		}
	}
	return ""
}
