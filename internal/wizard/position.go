package wizard

import (
	"fmt"
	"net/url"
	"strconv"
)

// LocationParam 位置写入地址栏时使用的查询参数
const LocationParam = "step"

// Position 步骤位置控制器
// 步骤编号为 1..max（含），最后一步即 max
type Position struct {
	active  int
	initial int
	max     int
}

// NewPosition 创建位置控制器，initial 会被夹到合法范围
func NewPosition(initial, max int) *Position {
	if max < 1 {
		max = 1
	}
	p := &Position{max: max}
	p.initial = p.clamp(initial)
	p.active = p.initial
	return p
}

func (p *Position) clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > p.max {
		return p.max
	}
	return n
}

// Active 当前步骤
func (p *Position) Active() int { return p.active }

// Max 步骤总数
func (p *Position) Max() int { return p.max }

// Initial 初始步骤
func (p *Position) Initial() int { return p.initial }

// IsLast 当前是否为最后一步
func (p *Position) IsLast() bool { return p.active == p.max }

// Next 前进一步，不超过 max
func (p *Position) Next() { p.active = p.clamp(p.active + 1) }

// Prev 后退一步，不低于 1
func (p *Position) Prev() { p.active = p.clamp(p.active - 1) }

// Set 直接跳转，越界时夹到边界
func (p *Position) Set(n int) { p.active = p.clamp(n) }

// Reset 回到初始步骤
func (p *Position) Reset() { p.active = p.initial }

// Restore 从地址栏恢复位置
// 参数是合法范围内的整数时采用，否则回到初始步骤
func (p *Position) Restore(raw string) {
	n, err := strconv.Atoi(raw)
	if err == nil && n >= 1 && n <= p.max {
		p.active = n
		return
	}
	p.active = p.initial
}

// RestoreFromQuery 从查询串恢复位置
func (p *Position) RestoreFromQuery(query url.Values) {
	p.Restore(query.Get(LocationParam))
}

// Location 当前位置对应的地址，调用方应以替换方式写入历史（不新增历史记录）
func (p *Position) Location(path string) string {
	return fmt.Sprintf("%s?%s=%d", path, LocationParam, p.active)
}
