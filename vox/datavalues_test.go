package vox

import (
	. "github.com/janelia-flyem/go/gocheck"
)

type DataValuesSuite struct{}

var _ = Suite(&DataValuesSuite{})

func (s *DataValuesSuite) TestDataType(c *C) {
	buf := make([]byte, 8)
	for _, t := range []DataType{T_uint8, T_int16, T_uint32, T_int64, T_float32, T_float64} {
		t.Encode(buf, 42)
		c.Assert(t.Decode(buf), Equals, float64(42))
	}
	T_int8.Encode(buf, -3)
	c.Assert(T_int8.Decode(buf), Equals, float64(-3))

	dt, err := ParseDataType("Float32")
	c.Assert(err, IsNil)
	c.Assert(dt, Equals, T_float32)
	c.Assert(DataTypeBytes(dt), Equals, int32(4))
	c.Assert(T_unknown.Known(), Equals, false)

	_, err = ParseDataType("complex128")
	c.Assert(err, NotNil)
}

func (s *DataValuesSuite) TestUnmarshalText(c *C) {
	var dt DataType
	c.Assert(dt.UnmarshalText([]byte("uint16")), IsNil)
	c.Assert(dt, Equals, T_uint16)

	c.Assert(dt.UnmarshalText([]byte("bool")), NotNil)
	c.Assert(dt, Equals, T_uint16)
}
