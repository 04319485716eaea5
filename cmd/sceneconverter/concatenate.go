package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/assettools/sceneforge/pkg/mathx"
	"github.com/assettools/sceneforge/pkg/meshtools"
	"github.com/assettools/sceneforge/pkg/trade"
)

// concatenateMeshes joins all meshes into one. When a default scene
// exists, every mesh assignment in it becomes one transformed instance;
// without one the meshes are joined as-is.
func concatenateMeshes(imp trade.Importer, meshes []*trade.MeshData) (*trade.MeshData, int) {
	instances := meshes
	if def := imp.DefaultScene(); def >= 0 && def < imp.SceneCount() {
		scene, err := imp.Scene(def)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot import scene %d: %v\n", def, err)
			return nil, exitImport
		}
		if entries := scene.MeshesMaterials(); len(entries) > 0 {
			transforms := absoluteTransforms(scene)
			instances = make([]*trade.MeshData, 0, len(entries))
			for _, e := range entries {
				mesh := meshes[e.Mesh]
				if m, ok := transforms[e.Object]; ok {
					mesh = meshtools.Transform3D(mesh, m)
				}
				instances = append(instances, mesh)
			}
		}
	}

	out, err := meshtools.Concatenate(instances)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot concatenate meshes: %v\n", err)
		return nil, exitConvert
	}
	return out, 0
}

// absoluteTransforms resolves each object's transformation against its
// parent chain. Scenes without a matrix field fall back to composing the
// decomposed translation, rotation and scaling fields. Objects without a
// transformation contribute identity.
func absoluteTransforms(scene *trade.SceneData) map[uint32]mathx.Mat4 {
	local := map[uint32]mathx.Mat4{}
	if ti, ok := scene.FieldID(trade.SceneFieldTransformation); ok {
		f := scene.Field(ti)
		if f.Type == trade.SceneFieldTypeMat4 {
			for i := 0; i < f.Len(); i++ {
				local[f.Mapping[i]] = mat4At(f, i)
			}
		}
	} else {
		local = trsTransforms(scene)
	}
	parents := map[uint32]int64{}
	if pi, ok := scene.FieldID(trade.SceneFieldParent); ok {
		f := scene.Field(pi)
		for i := 0; i < f.Len(); i++ {
			parents[f.Mapping[i]] = f.ValueInt(i)
		}
	}

	out := make(map[uint32]mathx.Mat4, len(local))
	var resolve func(id uint32) mathx.Mat4
	resolve = func(id uint32) mathx.Mat4 {
		if m, ok := out[id]; ok {
			return m
		}
		m, ok := local[id]
		if !ok {
			m = mathx.Identity()
		}
		if p, ok := parents[id]; ok && p >= 0 {
			m = resolve(uint32(p)).Mul(m)
		}
		out[id] = m
		return m
	}
	for id := range local {
		resolve(id)
	}
	for id := range parents {
		resolve(id)
	}
	return out
}

// trsTransforms builds per-object matrices from the decomposed
// translation, rotation and scaling fields, composed in that order.
func trsTransforms(scene *trade.SceneData) map[uint32]mathx.Mat4 {
	translations := map[uint32][]float32{}
	rotations := map[uint32]mathx.Quat{}
	scalings := map[uint32][]float32{}

	if ti, ok := scene.FieldID(trade.SceneFieldTranslation); ok {
		f := scene.Field(ti)
		if f.Type == trade.SceneFieldTypeVec3 {
			for i := 0; i < f.Len(); i++ {
				translations[f.Mapping[i]] = f.ValueFloats(i)
			}
		}
	}
	if ri, ok := scene.FieldID(trade.SceneFieldRotation); ok {
		f := scene.Field(ri)
		if f.Type == trade.SceneFieldTypeQuat {
			for i := 0; i < f.Len(); i++ {
				v := f.ValueFloats(i)
				rotations[f.Mapping[i]] = mathx.Quat{X: v[0], Y: v[1], Z: v[2], W: v[3]}
			}
		}
	}
	if si, ok := scene.FieldID(trade.SceneFieldScaling); ok {
		f := scene.Field(si)
		if f.Type == trade.SceneFieldTypeVec3 {
			for i := 0; i < f.Len(); i++ {
				scalings[f.Mapping[i]] = f.ValueFloats(i)
			}
		}
	}

	out := map[uint32]mathx.Mat4{}
	compose := func(id uint32) {
		if _, done := out[id]; done {
			return
		}
		m := mathx.Identity()
		if s, ok := scalings[id]; ok {
			m = mathx.Scaling(s[0], s[1], s[2])
		}
		if q, ok := rotations[id]; ok {
			m = q.ToMat4().Mul(m)
		}
		if t, ok := translations[id]; ok {
			m = mathx.Translation(t[0], t[1], t[2]).Mul(m)
		}
		out[id] = m
	}
	for id := range translations {
		compose(id)
	}
	for id := range rotations {
		compose(id)
	}
	for id := range scalings {
		compose(id)
	}
	return out
}

// mat4At reads the i-th matrix of a Mat4-typed scene field.
func mat4At(f *trade.SceneFieldData, i int) mathx.Mat4 {
	var m mathx.Mat4
	copy(m[:], f.ValueFloats(i))
	return m
}

// parseIndexList parses a "0,2,4-6" style list into sorted-as-given
// indices.
func parseIndexList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if from, to, ok := strings.Cut(part, "-"); ok && from != "" {
			a, err := strconv.Atoi(from)
			if err != nil {
				return nil, fmt.Errorf("invalid index range %q", part)
			}
			b, err := strconv.Atoi(to)
			if err != nil || b < a {
				return nil, fmt.Errorf("invalid index range %q", part)
			}
			for i := a; i <= b; i++ {
				out = append(out, i)
			}
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("invalid index %q", part)
		}
		out = append(out, i)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty index list")
	}
	return out, nil
}
