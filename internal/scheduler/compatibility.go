package scheduler

// CompatibilityResolver 订单品类 → 可用模具
//
// 匹配规则：
//   - 模具兼容品类中精确包含订单品类 → 兼容
//   - 模具兼容品类包含通用哨兵值 → 兼容，但保留品类除外
//   - 保留品类只能匹配显式列出该品类的模具（专用资源池不被通用需求稀释）
//   - 兼容品类为空的模具不兼容任何订单
type CompatibilityResolver struct {
	universal string
	reserved  map[string]bool
}

// NewCompatibilityResolver 创建兼容性解析器
func NewCompatibilityResolver(universal string, reserved []string) *CompatibilityResolver {
	r := make(map[string]bool, len(reserved))
	for _, c := range reserved {
		r[c] = true
	}
	return &CompatibilityResolver{universal: universal, reserved: r}
}

// IsReserved 是否为保留品类
func (r *CompatibilityResolver) IsReserved(categoryID string) bool {
	return r.reserved[categoryID]
}

// IsCompatible 判断模具能否生产该订单（不检查启用状态）
func (r *CompatibilityResolver) IsCompatible(order Order, mold Mold) bool {
	universal := false
	for _, c := range mold.CompatibleCategories {
		if c == order.CategoryID {
			return true
		}
		if r.universal != "" && c == r.universal {
			universal = true
		}
	}
	return universal && !r.IsReserved(order.CategoryID)
}

// CompatibleMolds 按注册表顺序返回已启用且兼容的模具；无匹配时返回空切片
func (r *CompatibilityResolver) CompatibleMolds(order Order, molds []Mold) []Mold {
	out := make([]Mold, 0, len(molds))
	for _, m := range molds {
		if !m.Enabled {
			continue
		}
		if r.IsCompatible(order, m) {
			out = append(out, m)
		}
	}
	return out
}
