package llvm

/*
#include <stddef.h>

typedef struct LLVMOpaqueContext *LLVMContextRef;
typedef struct LLVMOpaqueValue *LLVMValueRef;
typedef struct LLVMOpaqueMetadata *LLVMMetadataRef;
typedef struct LLVMOpaqueValueMetadataEntry LLVMValueMetadataEntry;

LLVMValueMetadataEntry *LLVMInstructionGetAllMetadataOtherThanDebugLoc(LLVMValueRef Instr, size_t *NumEntries);
unsigned LLVMValueMetadataEntriesGetKind(LLVMValueMetadataEntry *Entries, unsigned Index);
LLVMMetadataRef LLVMValueMetadataEntriesGetMetadata(LLVMValueMetadataEntry *Entries, unsigned Index);
void LLVMDisposeValueMetadataEntries(LLVMValueMetadataEntry *Entries);
LLVMValueRef LLVMMetadataAsValue(LLVMContextRef C, LLVMMetadataRef MD);
void LLVMSetMetadata(LLVMValueRef Val, unsigned KindID, LLVMValueRef Node);
*/
import "C"

import (
	"unsafe"

	"tinygo.org/x/go-llvm"
)

// The declarations above are part of the LLVM C API. The binding links the LLVM libraries, so only the
// prototypes are needed here.

// copyMetadata attaches the debug location and every other metadata attachment of src to dst. Folded constants
// carry no metadata and are left alone.
func copyMetadata(ctx llvm.Context, dst, src llvm.Value) {
	if dst.IsAInstruction().IsNil() || src.IsAInstruction().IsNil() {
		return
	}
	if loc := src.InstructionDebugLoc(); loc.C != nil {
		dst.InstructionSetDebugLoc(loc)
	}

	var n C.size_t
	entries := C.LLVMInstructionGetAllMetadataOtherThanDebugLoc(cValue(src), &n)
	if entries == nil {
		return
	}
	defer C.LLVMDisposeValueMetadataEntries(entries)
	for i1 := C.uint(0); i1 < C.uint(n); i1++ {
		md := C.LLVMMetadataAsValue(cContext(ctx), C.LLVMValueMetadataEntriesGetMetadata(entries, i1))
		C.LLVMSetMetadata(cValue(dst), C.LLVMValueMetadataEntriesGetKind(entries, i1), md)
	}
}

// cValue returns the C handle of v.
func cValue(v llvm.Value) C.LLVMValueRef {
	return C.LLVMValueRef(unsafe.Pointer(v.C))
}

// cContext returns the C handle of c.
func cContext(c llvm.Context) C.LLVMContextRef {
	return C.LLVMContextRef(unsafe.Pointer(c.C))
}
