package hdf5

import "github.com/robert-malhotra/h5grove/internal/message"

// Class is the HDF5 datatype class of a dataset or attribute.
type Class uint8

const (
	ClassInteger   = Class(message.ClassFixedPoint)
	ClassFloat     = Class(message.ClassFloatPoint)
	ClassTime      = Class(message.ClassTime)
	ClassString    = Class(message.ClassString)
	ClassBitfield  = Class(message.ClassBitfield)
	ClassOpaque    = Class(message.ClassOpaque)
	ClassCompound  = Class(message.ClassCompound)
	ClassReference = Class(message.ClassReference)
	ClassEnum      = Class(message.ClassEnum)
	ClassVarLen    = Class(message.ClassVarLen)
	ClassArray     = Class(message.ClassArray)
)

// Datatype describes how one element is encoded.
type Datatype struct {
	Class Class
	Size  int

	// Signed is set for signed integers and for enums over signed integers.
	Signed bool

	BigEndian bool

	// VarLenString is set for variable-length strings.
	VarLenString bool

	// SpacePadded is set for fixed-length strings padded with spaces
	// rather than NULs.
	SpacePadded bool

	// Members lists the fields of a compound type.
	Members []Member
}

// Member is one field of a compound datatype.
type Member struct {
	Name   string
	Offset int
	Type   Datatype
}

func newDatatype(dt *message.Datatype) Datatype {
	if dt == nil {
		return Datatype{}
	}
	out := Datatype{
		Class:        Class(dt.Class),
		Size:         int(dt.Size),
		Signed:       dt.Signed,
		BigEndian:    dt.ByteOrder == message.OrderBE,
		VarLenString: dt.IsVarLenString,
		SpacePadded:  dt.Class == message.ClassString && dt.StringPadding == message.PadSpacePad,
	}
	for _, m := range dt.Members {
		out.Members = append(out.Members, Member{
			Name:   m.Name,
			Offset: int(m.ByteOffset),
			Type:   newDatatype(m.Type),
		})
	}
	// Enums carry the byte order and sign of their base integer type.
	if dt.Class == message.ClassEnum && dt.BaseType != nil {
		out.Signed = dt.BaseType.Signed
		out.BigEndian = dt.BaseType.ByteOrder == message.OrderBE
	}
	return out
}
