package trade

import "fmt"

// LightType is the type of a light source.
type LightType uint8

const (
	LightTypeAmbient LightType = iota + 1
	LightTypeDirectional
	LightTypePoint
	LightTypeSpot
)

// String returns the light type name.
func (t LightType) String() string {
	switch t {
	case LightTypeAmbient:
		return "Ambient"
	case LightTypeDirectional:
		return "Directional"
	case LightTypePoint:
		return "Point"
	case LightTypeSpot:
		return "Spot"
	}
	return fmt.Sprintf("LightType(%d)", uint8(t))
}

// LightData describes one light source.
type LightData struct {
	Type        LightType
	Color       [3]float32
	Intensity   float32
	Attenuation [3]float32
	Range       float32

	// Cone angles in radians, used only by spot lights.
	InnerConeAngle float32
	OuterConeAngle float32
}

// CameraType is the projection type of a camera.
type CameraType uint8

const (
	CameraTypeOrthographic2D CameraType = iota + 1
	CameraTypeOrthographic3D
	CameraTypePerspective3D
)

// CameraData describes one camera.
type CameraData struct {
	Type CameraType

	// FOV is the horizontal field of view in radians, perspective only.
	FOV float32

	// Size is the projection size, orthographic only.
	Size [2]float32

	AspectRatio float32
	Near, Far   float32
}

// SkinData2D describes joints and inverse bind matrices of a 2D skin.
type SkinData2D struct {
	Joints              []uint32
	InverseBindMatrices [][9]float32
}

// SkinData3D describes joints and inverse bind matrices of a 3D skin.
type SkinData3D struct {
	Joints              []uint32
	InverseBindMatrices [][16]float32
}

// AnimationTrackTarget identifies what property of an object an animation
// track drives.
type AnimationTrackTarget uint32

const (
	AnimationTrackTargetTranslation AnimationTrackTarget = iota + 1
	AnimationTrackTargetRotation
	AnimationTrackTargetScaling

	animationTrackTargetCustomBase AnimationTrackTarget = 0x8000
)

// AnimationTrackTargetCustom returns a custom track target identifier.
func AnimationTrackTargetCustom(i uint32) AnimationTrackTarget {
	return animationTrackTargetCustomBase + AnimationTrackTarget(i)
}

// IsAnimationTrackTargetCustom returns whether t is a custom target.
func IsAnimationTrackTargetCustom(t AnimationTrackTarget) bool {
	return t >= animationTrackTargetCustomBase
}

// String returns the target name, or "Custom(i)" for custom targets.
func (t AnimationTrackTarget) String() string {
	switch t {
	case AnimationTrackTargetTranslation:
		return "Translation"
	case AnimationTrackTargetRotation:
		return "Rotation"
	case AnimationTrackTargetScaling:
		return "Scaling"
	}
	if IsAnimationTrackTargetCustom(t) {
		return fmt.Sprintf("Custom(%d)", uint32(t-animationTrackTargetCustomBase))
	}
	return fmt.Sprintf("AnimationTrackTarget(%d)", uint32(t))
}

// AnimationInterpolation is the keyframe interpolation mode of a track.
type AnimationInterpolation uint8

const (
	AnimationInterpolationConstant AnimationInterpolation = iota
	AnimationInterpolationLinear
	AnimationInterpolationSpline
)

// AnimationTrack is one keyframe track. Values are packed per keyframe
// with ValueSize bytes each; their interpretation is given by the target.
type AnimationTrack struct {
	Target        AnimationTrackTarget
	TargetObject  uint64
	Interpolation AnimationInterpolation
	Times         []float32
	ValueSize     int
	Values        []byte
}

// AnimationData describes one animation clip.
type AnimationData struct {
	// Duration is the clip time range in seconds.
	Duration [2]float32

	Tracks []AnimationTrack
}
