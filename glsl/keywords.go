// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

// glslKeywords contains GLSL reserved words and built-in names that
// user identifiers must not collide with. Based on GLSL 4.60.
var glslKeywords = map[string]struct{}{
	// Basic types
	"void": {}, "bool": {}, "int": {}, "uint": {}, "float": {}, "double": {},

	// Vector types
	"vec2": {}, "vec3": {}, "vec4": {},
	"ivec2": {}, "ivec3": {}, "ivec4": {},
	"uvec2": {}, "uvec3": {}, "uvec4": {},
	"bvec2": {}, "bvec3": {}, "bvec4": {},

	// Matrix types
	"mat2": {}, "mat3": {}, "mat4": {},
	"mat2x2": {}, "mat2x3": {}, "mat2x4": {},
	"mat3x2": {}, "mat3x3": {}, "mat3x4": {},
	"mat4x2": {}, "mat4x3": {}, "mat4x4": {},

	// Sampler and image types commonly used as identifiers
	"sampler": {}, "sampler2D": {}, "sampler3D": {}, "samplerCube": {},
	"image2D": {}, "image3D": {}, "imageCube": {},

	// Keywords
	"attribute": {}, "const": {}, "uniform": {}, "varying": {},
	"buffer": {}, "shared": {}, "coherent": {}, "volatile": {}, "restrict": {}, "readonly": {}, "writeonly": {},
	"layout": {}, "centroid": {}, "flat": {}, "smooth": {}, "noperspective": {},
	"patch": {}, "sample": {},
	"break": {}, "continue": {}, "do": {}, "for": {}, "while": {}, "switch": {}, "case": {}, "default": {},
	"if": {}, "else": {},
	"subroutine": {},
	"in":         {}, "out": {}, "inout": {},
	"true": {}, "false": {},
	"invariant": {}, "precise": {},
	"discard": {}, "return": {},
	"struct": {},

	// Precision qualifiers
	"lowp": {}, "mediump": {}, "highp": {}, "precision": {},

	// Reserved for future use
	"common": {}, "partition": {}, "active": {},
	"asm": {}, "class": {}, "union": {}, "enum": {}, "typedef": {}, "template": {}, "this": {},
	"goto":   {},
	"inline": {}, "noinline": {}, "public": {}, "static": {}, "extern": {}, "external": {}, "interface": {},
	"long": {}, "short": {}, "half": {}, "fixed": {}, "unsigned": {}, "superp": {},
	"input": {}, "output": {},
	"filter": {}, "sizeof": {}, "cast": {},
	"namespace": {}, "using": {},

	// Built-in functions commonly used as identifiers
	"main":    {},
	"radians": {}, "degrees": {}, "sin": {}, "cos": {}, "tan": {},
	"pow": {}, "exp": {}, "log": {}, "exp2": {}, "log2": {}, "sqrt": {}, "inversesqrt": {},
	"abs": {}, "sign": {}, "floor": {}, "trunc": {}, "round": {}, "ceil": {}, "fract": {},
	"mod": {}, "modf": {}, "min": {}, "max": {}, "clamp": {}, "mix": {}, "step": {}, "smoothstep": {},
	"length": {}, "distance": {}, "dot": {}, "cross": {}, "normalize": {}, "reflect": {}, "refract": {},
	"matrixCompMult": {}, "outerProduct": {}, "transpose": {}, "determinant": {}, "inverse": {},
	"any": {}, "all": {}, "not": {},
	"texture": {}, "texelFetch": {}, "textureLod": {}, "textureSize": {},
	"dFdx": {}, "dFdy": {}, "fwidth": {},
	"barrier": {}, "memoryBarrier": {}, "groupMemoryBarrier": {},
}

// isKeyword checks if a name is a GLSL keyword or reserved word.
func isKeyword(name string) bool {
	_, ok := glslKeywords[name]
	return ok
}

// escapeKeyword escapes a name if it conflicts with GLSL keywords.
// Returns the name with underscore prefix if it's reserved.
func escapeKeyword(name string) string {
	if name == "" {
		return "_unnamed"
	}
	if isKeyword(name) {
		return "_" + name
	}
	// Also escape names starting with "gl_" (reserved prefix)
	if len(name) >= 3 && name[:3] == "gl_" {
		return "_" + name
	}
	return name
}
