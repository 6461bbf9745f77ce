/*
	Package vox provides types, constants, and functions that have no other dependencies
	and can be used by all packages within voxpipe.  This includes n-dimensional points,
	regions of interest, element data types, the error taxonomy shared by the pipeline
	layers, and leveled logging.
*/
package vox
