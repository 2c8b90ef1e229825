package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNamePath      = "path"
	FieldNameValueType = "value_type"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldPath 返回被规范化值在树中的路径字段。
func FieldPath(path []string) zap.Field {
	return zap.Strings(FieldNamePath, path)
}

// FieldValueType 返回被规范化值的 Go 类型字段。
func FieldValueType(typeName string) zap.Field {
	return zap.String(FieldNameValueType, typeName)
}
