package script

import (
	"fmt"
	"strconv"

	lua "github.com/yuin/gopher-lua"
)

// toLua converts a Go payload to a Lua value. Types without a Lua
// counterpart are passed as their %v string.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		tbl := L.NewTable()
		for i, item := range val {
			tbl.RawSetInt(i+1, toLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, toLua(L, item))
		}
		return tbl
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

// toGo converts a Lua value to a Go payload. Tables with only positive
// integer keys become []any; other tables become map[string]any.
func toGo(v lua.LValue) any {
	switch val := v.(type) {
	case nil:
		return nil
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		return tableToGo(val)
	default:
		if v == lua.LNil {
			return nil
		}
		return v.String()
	}
}

func tableToGo(tbl *lua.LTable) any {
	isArray := true
	maxIdx, n := 0, 0
	tbl.ForEach(func(k, _ lua.LValue) {
		n++
		num, ok := k.(lua.LNumber)
		if !ok || num < 1 || float64(num) != float64(int(num)) {
			isArray = false
			return
		}
		if int(num) > maxIdx {
			maxIdx = int(num)
		}
	})

	// Sparse tables stay maps so a large key cannot force a large slice.
	if isArray && maxIdx > 0 && maxIdx == n {
		arr := make([]any, maxIdx)
		tbl.ForEach(func(k, v lua.LValue) {
			arr[int(k.(lua.LNumber))-1] = toGo(v)
		})
		return arr
	}

	result := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = strconv.FormatFloat(float64(kv), 'f', -1, 64)
		default:
			key = k.String()
		}
		result[key] = toGo(v)
	})
	return result
}
