package vox

import (
	. "github.com/janelia-flyem/go/gocheck"
)

type LogSuite struct{}

var _ = Suite(&LogSuite{})

func (s *LogSuite) TestLogMode(c *C) {
	m, err := ParseLogMode("warning")
	c.Assert(err, IsNil)
	c.Assert(m, Equals, WarningMode)
	_, err = ParseLogMode("chatty")
	c.Assert(err, NotNil)

	old := LogMode()
	SetLogMode(DebugMode)
	c.Assert(DebugEnabled(), Equals, true)
	SetLogMode(old)
}
