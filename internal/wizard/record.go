package wizard

import (
	"strconv"
)

// ==================== 枚举 ====================

// Condition 商品成色
type Condition string

const (
	ConditionNew         Condition = "NEW"
	ConditionUsed        Condition = "USED"
	ConditionRefurbished Condition = "REFURBISHED"
)

// Valid 是否为合法成色
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return true
	}
	return false
}

// Label 显示文案
func (c Condition) Label() string {
	switch c {
	case ConditionNew:
		return "Novo"
	case ConditionUsed:
		return "Usado"
	case ConditionRefurbished:
		return "Recondicionado"
	}
	return ""
}

// WarrantyType 保修类型
type WarrantyType string

const (
	WarrantySeller       WarrantyType = "SELLER"
	WarrantyManufacturer WarrantyType = "MANUFACTURER"
	WarrantyNone         WarrantyType = "NONE"
)

func (t WarrantyType) Valid() bool {
	switch t {
	case WarrantySeller, WarrantyManufacturer, WarrantyNone:
		return true
	}
	return false
}

func (t WarrantyType) Label() string {
	switch t {
	case WarrantySeller:
		return "Garantia do vendedor"
	case WarrantyManufacturer:
		return "Garantia de fábrica"
	case WarrantyNone:
		return "Sem garantia"
	}
	return ""
}

// DurationUnit 保修时长单位
type DurationUnit string

const (
	UnitDays   DurationUnit = "DAYS"
	UnitMonths DurationUnit = "MONTHS"
	UnitYears  DurationUnit = "YEARS"
)

func (u DurationUnit) Valid() bool {
	switch u {
	case UnitDays, UnitMonths, UnitYears:
		return true
	}
	return false
}

func (u DurationUnit) Label() string {
	switch u {
	case UnitDays:
		return "Dias"
	case UnitMonths:
		return "Meses"
	case UnitYears:
		return "Anos"
	}
	return ""
}

// ==================== 共享记录 ====================

// WarrantyDuration 保修时长
type WarrantyDuration struct {
	Time int          `json:"time"`
	Unit DurationUnit `json:"unit"`
}

// Warranty 保修
type Warranty struct {
	Type     WarrantyType     `json:"type"`
	Duration WarrantyDuration `json:"duration"`
}

// Picture 已暂存的图片引用，二进制内容在存储层
type Picture struct {
	Name        string `json:"name"`
	StorageKey  string `json:"storageKey"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// FormRecord 所有步骤共享的表单记录
// Price 保存掩码后的文本用于回显，分值只在提交时计算
type FormRecord struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Condition   Condition `json:"condition"`
	CategoryID  string    `json:"categoryId"`
	Warranty    Warranty  `json:"warranty"`
	Pictures    []Picture `json:"pictures"`
}

// newRecord 创建带默认值的记录
func newRecord() FormRecord {
	return FormRecord{
		Warranty: Warranty{
			Duration: WarrantyDuration{Unit: UnitMonths},
		},
		Pictures: []Picture{},
	}
}

// HasPicture 按文件名判断是否已存在
func (r *FormRecord) HasPicture(name string) bool {
	for _, p := range r.Pictures {
		if p.Name == name {
			return true
		}
	}
	return false
}

// durationTimeText 时长为 0 视为未填写
func (r *FormRecord) durationTimeText() string {
	if r.Warranty.Duration.Time == 0 {
		return ""
	}
	return strconv.Itoa(r.Warranty.Duration.Time)
}

// Category 远程分类
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
