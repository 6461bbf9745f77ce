package vox

import (
	. "github.com/janelia-flyem/go/gocheck"
)

type PointSuite struct{}

var _ = Suite(&PointSuite{})

func (s *PointSuite) TestPoint3d(c *C) {
	a := Point3d{10, 21, 837821}
	b := Point3d{78312, -200, 40123}
	result := a.Add(b)
	c.Assert(result, Equals, Point3d{78322, -179, 877944})

	result = a.Sub(b)
	c.Assert(result, Equals, Point3d{10 - 78312, 221, 837821 - 40123})

	c.Assert(a.String(), Equals, "(10,21,837821)")

	result, changed := a.Max(b)
	c.Assert(result, Equals, Point3d{78312, 21, 837821})
	c.Assert(changed, Equals, true)
	result, _ = b.Min(a)
	c.Assert(result, Equals, Point3d{10, -200, 40123})

	c.Assert(Point3d{2, 3, 4}.Prod(), Equals, int64(24))
	c.Assert(Point3d{8, 6, 4}.Div(Point3d{2, 3, 4}), Equals, Point3d{4, 2, 1})

	result, changed = a.Min(a)
	c.Assert(result, Equals, a)
	c.Assert(changed, Equals, false)
}

func (s *PointSuite) TestPointNd(c *C) {
	a := PointNd{10, 21, 837821, 100}
	b := PointNd{78312, -200, 40123, -100}
	result := a.Add(b)
	c.Assert(result, DeepEquals, PointNd{78322, -179, 877944, 0})
	c.Assert(a.String(), Equals, "(10,21,837821,100)")

	result, _ = a.Max(b)
	c.Assert(result, DeepEquals, PointNd{78312, 21, 837821, 100})
	result, _ = b.Min(a)
	c.Assert(result, DeepEquals, PointNd{10, -200, 40123, -100})
	c.Assert(a.Sub(a), DeepEquals, PointNd{0, 0, 0, 0})
	c.Assert(PointNd{2, 3, 4, 5}.Prod(), Equals, int64(120))

	// results never alias the receiver
	dup := a.Duplicate().(PointNd)
	dup[0] = 0
	c.Assert(a[0], Equals, int32(10))
}

func (s *PointSuite) TestNewPoint(c *C) {
	_, err := NewPoint(nil)
	c.Assert(err, NotNil)

	p, err := NewPoint([]int32{4})
	c.Assert(err, IsNil)
	c.Assert(p, DeepEquals, PointNd{4})

	p, err = NewPoint([]int32{4, 5})
	c.Assert(err, IsNil)
	c.Assert(p, Equals, Point2d{4, 5})

	p, err = NewPoint([]int32{1, 2, 3})
	c.Assert(err, IsNil)
	c.Assert(p, Equals, Point3d{1, 2, 3})
	c.Assert(ZeroPoint(4), DeepEquals, PointNd{0, 0, 0, 0})

	c.Assert(PointEquals(Point3d{1, 2, 3}, PointNd{1, 2, 3}), Equals, true)
	c.Assert(PointEquals(Point2d{1, 2}, PointNd{1, 2, 3}), Equals, false)
	c.Assert(PointEquals(nil, nil), Equals, true)
}
