package access

import (
	"errors"
	"fmt"
)

// ErrStoryNotFound 章节所属故事不存在
var ErrStoryNotFound = errors.New("story not found")

// AccessLookupError 权限判定过程中协作方查询失败。
// 只在网关内部记录，调用方看到的是拒绝访问。
type AccessLookupError struct {
	Op  string
	Err error
}

func (e *AccessLookupError) Error() string {
	return fmt.Sprintf("access lookup %s failed: %v", e.Op, e.Err)
}

func (e *AccessLookupError) Unwrap() error {
	return e.Err
}
