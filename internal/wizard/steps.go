package wizard

// ==================== 步骤定义 ====================

// StepID 步骤编号，同时也是位置
type StepID int

const (
	StepDescribeHero StepID = iota + 1
	StepTitle
	StepCategory
	StepCondition
	StepPicturesHero
	StepPictures
	StepDescription
	StepPrice
	StepWarrantyType
	StepWarrantyDuration
	StepReviewHero
	StepReview
)

// StepCount 步骤总数
const StepCount = int(StepReview)

// StepKind 步骤类型，决定前端渲染哪种内容
type StepKind string

const (
	KindHero     StepKind = "hero"
	KindInput    StepKind = "input"
	KindSearch   StepKind = "search"
	KindChoice   StepKind = "choice"
	KindPictures StepKind = "pictures"
	KindReview   StepKind = "review"
)

// Choice 单选项
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Navigator 步骤内容能拿到的导航能力，只能通过它移动位置
type Navigator interface {
	NextStep()
	SetStep(n int)
}

// StepDefinition 步骤定义，定义后不可变
// Select 用于单选步骤：写入记录并决定如何导航
type StepDefinition struct {
	ID      StepID
	Label   string
	Kind    StepKind
	Heading string
	Action  string
	Choices []Choice
	Select  func(rec *FormRecord, nav Navigator, value string) error
}

func conditionChoices() []Choice {
	return []Choice{
		{Value: string(ConditionNew), Label: ConditionNew.Label()},
		{Value: string(ConditionUsed), Label: ConditionUsed.Label()},
		{Value: string(ConditionRefurbished), Label: ConditionRefurbished.Label()},
	}
}

func warrantyChoices() []Choice {
	return []Choice{
		{Value: string(WarrantySeller), Label: WarrantySeller.Label()},
		{Value: string(WarrantyManufacturer), Label: WarrantyManufacturer.Label()},
		{Value: string(WarrantyNone), Label: WarrantyNone.Label()},
	}
}

func unitChoices() []Choice {
	return []Choice{
		{Value: string(UnitDays), Label: UnitDays.Label()},
		{Value: string(UnitMonths), Label: UnitMonths.Label()},
		{Value: string(UnitYears), Label: UnitYears.Label()},
	}
}

// selectCondition 选择成色后直接进入下一步
func selectCondition(rec *FormRecord, nav Navigator, value string) error {
	c := Condition(value)
	if !c.Valid() {
		return ErrInvalidChoice
	}
	rec.Condition = c
	nav.NextStep()
	return nil
}

// selectWarrantyType 选择“无保修”时跳过时长步骤
func selectWarrantyType(rec *FormRecord, nav Navigator, value string) error {
	t := WarrantyType(value)
	if !t.Valid() {
		return ErrInvalidChoice
	}
	rec.Warranty.Type = t
	if t == WarrantyNone {
		rec.Warranty.Duration.Time = 0
		nav.NextStep()
	}
	nav.NextStep()
	return nil
}

// selectCategory 选择分类后进入下一步
func selectCategory(rec *FormRecord, nav Navigator, value string) error {
	if value == "" {
		return ErrInvalidChoice
	}
	rec.CategoryID = value
	nav.NextStep()
	return nil
}

// DefaultSteps 上架向导的 12 个步骤
func DefaultSteps() []StepDefinition {
	return []StepDefinition{
		{ID: StepDescribeHero, Label: "Passo 1", Kind: KindHero,
			Heading: "Conte como é o seu produto para que todos possam encontrá-lo",
			Action:  "Descrever Produto"},
		{ID: StepTitle, Label: "Passo 2", Kind: KindInput,
			Heading: "Indique seu produto, marca e modelo", Action: "Continuar"},
		{ID: StepCategory, Label: "Passo 3", Kind: KindSearch,
			Heading: "Qual opção define o seu produto?", Select: selectCategory},
		{ID: StepCondition, Label: "Passo 4", Kind: KindChoice,
			Heading: "O seu produto é...", Choices: conditionChoices(), Select: selectCondition},
		{ID: StepPicturesHero, Label: "Passo 5", Kind: KindHero,
			Heading: "Adicione boas fotos do seu produto", Action: "Adicionar fotos"},
		{ID: StepPictures, Label: "Passo 6", Kind: KindPictures,
			Heading: "Fotos", Action: "Confirmar"},
		{ID: StepDescription, Label: "Passo 7", Kind: KindInput,
			Heading: "Descreva seu produto", Action: "Continuar"},
		{ID: StepPrice, Label: "Passo 8", Kind: KindInput,
			Heading: "Preço", Action: "Continuar"},
		{ID: StepWarrantyType, Label: "Passo 9", Kind: KindChoice,
			Heading: "Você oferece garantia?", Choices: warrantyChoices(), Select: selectWarrantyType},
		{ID: StepWarrantyDuration, Label: "Passo 10", Kind: KindInput,
			Heading: "Quanto tempo de garantia você oferece?", Action: "Continuar", Choices: unitChoices()},
		{ID: StepReviewHero, Label: "Passo 11", Kind: KindHero,
			Heading: "Você está prestes a anunciar", Action: "Revisar anúncio"},
		{ID: StepReview, Label: "Passo 12", Kind: KindReview,
			Heading: "Revise e anuncie", Action: "Anunciar"},
	}
}
