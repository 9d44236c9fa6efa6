package debugui

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenecore/ecs"
)

func NewComponentInspectorComponent() ComponentInspectorComponent {
	return ComponentInspectorComponent{showWorldTransform: true}
}

func (ci *ComponentInspectorComponent) Render(w *ecs.World, selection *Selection) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}
	defer imgui.End()

	id := selection.Entity
	if id.IsZero() {
		imgui.Text("No entity selected")
		return
	}
	if !w.Alive(id) {
		imgui.Text(fmt.Sprintf("%s no longer exists", id))
		if imgui.Button("Clear") {
			selection.Entity = 0
		}
		return
	}

	storage := w.Storage()
	imgui.Text(fmt.Sprintf("Entity: %s", id))
	if w.PendingDeletion(id) {
		imgui.TextColored(imgui.NewVec4(1, 0.4, 0.4, 1), "pending deletion")
	} else if imgui.Button("Delete") {
		w.DeleteLater(id)
	}

	if _, ok := ecs.TryGet[ecs.Transform](storage, id); ok {
		imgui.Checkbox("World transform", &ci.showWorldTransform)
		if ci.showWorldTransform {
			if m, err := w.Hierarchy().WorldTransform(id); err == nil {
				p := m.Translation()
				imgui.Text(fmt.Sprintf("World position: (%.3f, %.3f, %.3f)", p.X, p.Y, p.Z))
			}
		}
	}
	imgui.Separator()

	for _, compType := range storage.ComponentTypes(id) {
		component := storage.GetComponent(id, compType)
		if component == nil {
			continue
		}

		if imgui.TreeNodeStr(compType.String()) {
			renderComponent(reflect.ValueOf(component).Elem(), compType.String())
			imgui.TreePop()
		}
	}
}

// renderComponent draws editable widgets for val, which must be addressable.
func renderComponent(val reflect.Value, scope string) {
	if val.Kind() != reflect.Struct {
		renderField(val.Type().Name(), val, scope)
		return
	}
	for _, field := range fieldsOf(val.Type()) {
		fieldVal := val.Field(field.Index)
		if field.IsPointer {
			if fieldVal.IsNil() {
				imgui.Text(fmt.Sprintf("%s: nil", field.Name))
				continue
			}
			fieldVal = fieldVal.Elem()
		}
		renderField(field.Name, fieldVal, scope)
	}
}

func renderField(name string, val reflect.Value, scope string) {
	label := fmt.Sprintf("##%s.%s", scope, name)

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(label, &v) && val.CanSet() {
			val.SetInt(int64(v))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(label, &v) && v >= 0 && val.CanSet() {
			val.SetUint(uint64(v))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(label, &v) && val.CanSet() {
			val.SetFloat(float64(v))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) && val.CanSet() {
			val.SetBool(v)
		}

	case reflect.String:
		v := val.String()
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(label, "", &v, imgui.InputTextFlagsNone, nil) && val.CanSet() {
			val.SetString(v)
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			renderComponent(val, scope+"."+name)
			imgui.TreePop()
		}

	case reflect.Slice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	default:
		if val.CanInterface() {
			imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
		} else {
			imgui.Text(fmt.Sprintf("%s: <%s>", name, val.Type()))
		}
	}
}

type FieldInfo struct {
	Name      string
	Type      reflect.Type
	Index     int
	IsPointer bool
}

var fieldCache sync.Map // reflect.Type -> []FieldInfo

// fieldsOf lists the exported fields of a struct type. Results are cached.
func fieldsOf(t reflect.Type) []FieldInfo {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]FieldInfo)
	}

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			fieldType := field.Type
			isPointer := fieldType.Kind() == reflect.Ptr
			if isPointer {
				fieldType = fieldType.Elem()
			}

			fields = append(fields, FieldInfo{
				Name:      field.Name,
				Type:      fieldType,
				Index:     i,
				IsPointer: isPointer,
			})
		}
	}

	cached, _ := fieldCache.LoadOrStore(t, fields)
	return cached.([]FieldInfo)
}
