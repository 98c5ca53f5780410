package cfg

import (
	"strings"
)

// Node 一段未绑定的配置，实现 ref.Convertable，在构造对象时再转换为具体 options
type Node struct {
	data any
}

func NewNode(data any) *Node {
	return &Node{data: data}
}

func (n *Node) Data() any {
	return n.data
}

// Sub 按 "a.b.c" 取子节点，不存在时返回空节点
func (n *Node) Sub(key string) *Node {
	if key == "" {
		return n
	}
	current := n.data
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return &Node{}
		}
		current = m[part]
	}
	return &Node{data: current}
}

// ConvertTo 绑定到 object（指针），并设置 def 默认值
func (n *Node) ConvertTo(object any) error {
	if err := Bind(n.data, object); err != nil {
		return err
	}
	return SetDefaults(object)
}
