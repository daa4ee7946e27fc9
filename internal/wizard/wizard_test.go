package wizard

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/form"
)

// ==================== 辅助函数 ====================

func at(step StepID) *Wizard {
	w := New()
	w.SetStep(int(step))
	return w
}

// fill 走完整个流程，停在复核页
func fill(t *testing.T) *Wizard {
	t.Helper()
	w := New()

	require.NoError(t, w.Continue()) // 1 -> 2
	_, err := w.ChangeField(FieldTitle, "Camiseta azul tamanho M")
	require.NoError(t, err)
	require.NoError(t, w.Continue()) // 2 -> 3

	w.SetCategories([]Category{{ID: "c1", Name: "Roupas"}, {ID: "c2", Name: "Eletrônicos"}})
	require.NoError(t, w.Select(StepCategory, "c1")) // 3 -> 4
	require.NoError(t, w.Select(StepCondition, string(ConditionNew)))
	require.NoError(t, w.Continue()) // 5 -> 6

	_, err = w.AddPictures([]Picture{{Name: "a.jpg", StorageKey: "k/a.jpg"}})
	require.NoError(t, err)
	require.NoError(t, w.Continue()) // 6 -> 7

	_, err = w.ChangeField(FieldDescription, "Camiseta de algodão, nunca usada.")
	require.NoError(t, err)
	require.NoError(t, w.Continue()) // 7 -> 8

	_, err = w.ChangeField(FieldPrice, "10050")
	require.NoError(t, err)
	require.NoError(t, w.Continue()) // 8 -> 9

	require.NoError(t, w.Select(StepWarrantyType, string(WarrantySeller)))
	_, err = w.ChangeField(FieldWarrantyTime, "3")
	require.NoError(t, err)
	require.NoError(t, w.Continue()) // 10 -> 11
	require.NoError(t, w.Continue()) // 11 -> 12

	require.Equal(t, StepReview, w.Active())
	return w
}

// ==================== 导航 ====================

func TestWizard_StartsOnFirstStep(t *testing.T) {
	w := New()
	assert.Equal(t, StepDescribeHero, w.Active())
	assert.Equal(t, UnitMonths, w.Record().Warranty.Duration.Unit)
	assert.Equal(t, 12, StepCount)
}

func TestWizard_NextStepCapsAtReview(t *testing.T) {
	w := New()
	for i := 0; i < 30; i++ {
		w.NextStep()
	}
	assert.Equal(t, StepReview, w.Active())
	assert.True(t, w.IsLastStep())
}

func TestWizard_LeavingStepKeepsValue(t *testing.T) {
	w := at(StepTitle)
	_, err := w.ChangeField(FieldTitle, "Notebook")
	require.NoError(t, err)

	w.NextStep()
	w.PrevStep()
	w.PrevStep()
	w.SetStep(int(StepTitle))
	assert.Equal(t, "Notebook", w.Record().Title)
}

// ==================== 字段 ====================

func TestWizard_TitleTruncatesAt60(t *testing.T) {
	w := at(StepTitle)
	fv, err := w.ChangeField(FieldTitle, strings.Repeat("a", 61))
	require.NoError(t, err)
	assert.Equal(t, 60, fv.CharCount)
	assert.Len(t, w.Record().Title, 60)
	assert.Empty(t, fv.Errors)
}

func TestWizard_ShortTitleBlocksContinue(t *testing.T) {
	w := at(StepTitle)
	fv, err := w.ChangeField(FieldTitle, "ab")
	require.NoError(t, err)
	assert.NotEmpty(t, fv.Errors)
	assert.False(t, w.ContinueEnabled(StepTitle))

	err = w.Continue()
	var verrs *form.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, FieldTitle, verrs.Fields[0].Field)
	assert.Equal(t, StepTitle, w.Active())
}

func TestWizard_FieldOwnership(t *testing.T) {
	w := at(StepTitle)

	_, err := w.ChangeField(FieldDescription, "texto")
	assert.ErrorIs(t, err, ErrFieldNotOnStep)

	_, err = w.ChangeField("nope", "x")
	assert.ErrorIs(t, err, ErrUnknownField)

	w.SetStep(int(StepCondition))
	_, err = w.ChangeField(FieldCondition, "NEW")
	assert.ErrorIs(t, err, ErrSelectionOnly)
}

func TestWizard_PriceMaskAndOnDemandValidation(t *testing.T) {
	w := at(StepPrice)

	fv, err := w.ChangeField(FieldPrice, "10050")
	require.NoError(t, err)
	assert.Equal(t, "100,50", fv.Value)
	assert.True(t, w.ContinueEnabled(StepPrice))

	_, err = w.ChangeField(FieldPrice, "")
	require.NoError(t, err)
	assert.Equal(t, "0,00", w.Record().Price)
	assert.True(t, w.ContinueEnabled(StepPrice))

	assert.Error(t, w.Continue())
	assert.Equal(t, StepPrice, w.Active())
}

func TestWizard_DescriptionLength(t *testing.T) {
	w := at(StepDescription)
	_, err := w.ChangeField(FieldDescription, "curta")
	require.NoError(t, err)
	assert.False(t, w.ContinueEnabled(StepDescription))

	_, err = w.ChangeField(FieldDescription, strings.Repeat("d", 4100))
	require.NoError(t, err)
	assert.Equal(t, 4000, form.CharCount(w.Record().Description))
	assert.True(t, w.ContinueEnabled(StepDescription))
}

// ==================== 图片 ====================

func TestWizard_PicturesDedupAndRemove(t *testing.T) {
	w := at(StepPictures)

	assert.Equal(t, []string{"a.jpg"}, w.FilterNewPictures([]string{"a.jpg", "a.jpg"}))

	added, err := w.AddPictures([]Picture{{Name: "a.jpg"}})
	require.NoError(t, err)
	assert.Len(t, added, 1)

	added, err = w.AddPictures([]Picture{{Name: "a.jpg"}})
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.Len(t, w.Record().Pictures, 1)
	assert.Empty(t, w.FilterNewPictures([]string{"a.jpg"}))

	view := w.View("/w")
	assert.False(t, view.PicturePlaceholder)

	_, err = w.RemovePicture("a.jpg")
	require.NoError(t, err)
	assert.Empty(t, w.Record().Pictures)
	assert.True(t, w.View("/w").PicturePlaceholder)
	assert.False(t, w.ContinueEnabled(StepPictures))

	_, err = w.RemovePicture("a.jpg")
	assert.ErrorIs(t, err, ErrPictureNotFound)
}

func TestWizard_PicturesOnlyOnPictureStep(t *testing.T) {
	w := at(StepTitle)
	_, err := w.AddPictures([]Picture{{Name: "a.jpg"}})
	assert.ErrorIs(t, err, ErrFieldNotOnStep)
}

// ==================== 单选 ====================

func TestWizard_WarrantyNoneSkipsDuration(t *testing.T) {
	w := at(StepWarrantyType)
	require.NoError(t, w.Select(StepWarrantyType, string(WarrantyNone)))
	assert.Equal(t, StepReviewHero, w.Active())
	assert.Equal(t, 0, w.Record().Warranty.Duration.Time)

	w.SetStep(int(StepWarrantyDuration))
	assert.True(t, w.ContinueEnabled(StepWarrantyDuration))
	require.NoError(t, w.Continue())
}

func TestWizard_WarrantyDurationRequired(t *testing.T) {
	w := at(StepWarrantyType)
	require.NoError(t, w.Select(StepWarrantyType, string(WarrantyManufacturer)))
	assert.Equal(t, StepWarrantyDuration, w.Active())

	assert.Error(t, w.Continue())

	_, err := w.ChangeField(FieldWarrantyTime, "0")
	require.NoError(t, err)
	assert.Error(t, w.Continue())

	_, err = w.ChangeField(FieldWarrantyTime, "2")
	require.NoError(t, err)
	_, err = w.ChangeField(FieldWarrantyUnit, "years")
	require.NoError(t, err)
	require.NoError(t, w.Continue())
	assert.Equal(t, UnitYears, w.Record().Warranty.Duration.Unit)
}

func TestWizard_SelectValidation(t *testing.T) {
	w := at(StepCondition)
	assert.ErrorIs(t, w.Select(StepCondition, "BROKEN"), ErrInvalidChoice)
	assert.ErrorIs(t, w.Select(StepCategory, "c1"), ErrFieldNotOnStep)

	w.SetStep(int(StepCategory))
	w.SetCategories([]Category{{ID: "c1", Name: "Roupas"}})
	assert.ErrorIs(t, w.Select(StepCategory, "zz"), ErrInvalidChoice)
	require.NoError(t, w.Select(StepCategory, "c1"))
	assert.Equal(t, StepCondition, w.Active())
}

func TestFilterCategories_AnyTerm(t *testing.T) {
	cats := []Category{
		{ID: "1", Name: "Roupas Femininas"},
		{ID: "2", Name: "Eletrônicos"},
		{ID: "3", Name: "Calçados"},
	}
	assert.Len(t, filterCategories(cats, ""), 3)
	assert.Len(t, filterCategories(cats, "roupas"), 1)
	assert.Len(t, filterCategories(cats, "ROUPAS calç"), 2)
	assert.Empty(t, filterCategories(cats, "livros"))
}

// ==================== 复核 ====================

func TestWizard_ReviewJumpReturnsToReview(t *testing.T) {
	w := fill(t)

	tests := []struct {
		group ReviewGroup
		step  StepID
	}{
		{GroupPhotos, StepPictures},
		{GroupTitle, StepTitle},
		{GroupPrice, StepPrice},
		{GroupDescription, StepDescription},
		{GroupCondition, StepCondition},
		{GroupCategory, StepCategory},
	}
	for _, tt := range tests {
		t.Run(string(tt.group), func(t *testing.T) {
			require.NoError(t, w.JumpToEdit(tt.group))
			assert.Equal(t, tt.step, w.Active())
			w.NextStep()
			assert.Equal(t, StepReview, w.Active())
		})
	}
}

func TestWizard_ReviewJumpWarrantyCoversBothSteps(t *testing.T) {
	w := fill(t)

	require.NoError(t, w.JumpToEdit(GroupWarranty))
	assert.Equal(t, StepWarrantyType, w.Active())
	require.NoError(t, w.Select(StepWarrantyType, string(WarrantyManufacturer)))
	assert.Equal(t, StepWarrantyDuration, w.Active())
	require.NoError(t, w.Continue())
	assert.Equal(t, StepReview, w.Active())

	require.NoError(t, w.JumpToEdit(GroupWarranty))
	require.NoError(t, w.Select(StepWarrantyType, string(WarrantyNone)))
	assert.Equal(t, StepReview, w.Active())
}

func TestWizard_ReviewJumpBypassesGating(t *testing.T) {
	w := fill(t)
	require.NoError(t, w.JumpToEdit(GroupTitle))
	_, err := w.ChangeField(FieldTitle, "")
	require.NoError(t, err)
	assert.Error(t, w.Continue())
	assert.Equal(t, StepTitle, w.Active())
}

func TestWizard_ReviewSummary(t *testing.T) {
	w := fill(t)
	lines := w.Review()
	require.Len(t, lines, 7)

	byGroup := map[ReviewGroup]ReviewLine{}
	for _, l := range lines {
		byGroup[l.Group] = l
	}
	assert.Equal(t, "1 foto", byGroup[GroupPhotos].Summary)
	assert.Equal(t, "R$ 100,50", byGroup[GroupPrice].Summary)
	assert.Equal(t, "Roupas", byGroup[GroupCategory].Summary)
	assert.Equal(t, "Novo", byGroup[GroupCondition].Summary)
	assert.Equal(t, StepWarrantyType, byGroup[GroupWarranty].Step)
	assert.Equal(t, StepPrice, byGroup[GroupPrice].Step)
}

func TestWizard_JumpOnlyFromReview(t *testing.T) {
	w := at(StepTitle)
	assert.ErrorIs(t, w.JumpToEdit(GroupTitle), ErrNotOnReview)

	w = fill(t)
	assert.ErrorIs(t, w.JumpToEdit("shipping"), ErrUnknownGroup)
}

// ==================== 提交 ====================

func TestWizard_SubmissionPayload(t *testing.T) {
	w := fill(t)

	sub, err := w.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, int64(10050), sub.PriceInCents)
	assert.Equal(t, 3, sub.WarrantyDurationTime)
	assert.Equal(t, UnitMonths, sub.WarrantyDurationUnit)
	assert.Len(t, sub.Pictures, 1)

	names := make([]string, 0)
	for _, f := range sub.FormFields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"title", "description", "priceInCents", "warrantyType",
		"warrantyDurationTime", "warrantyDurationUnit", "condition", "categoryId",
	}, names)

	assert.True(t, w.Submitting())
	assert.False(t, w.View("/w").SubmitEnabled)
}

func TestWizard_SubmitSingleInFlight(t *testing.T) {
	w := fill(t)

	_, err := w.BeginSubmit()
	require.NoError(t, err)
	_, err = w.BeginSubmit()
	assert.ErrorIs(t, err, ErrSubmissionPending)

	w.FinishSubmit()
	_, err = w.BeginSubmit()
	assert.NoError(t, err)
}

func TestWizard_SubmitOnlyFromReview(t *testing.T) {
	w := at(StepPrice)
	_, err := w.BeginSubmit()
	assert.ErrorIs(t, err, ErrNotOnReview)
}

func TestWizard_SubmitValidatesWholeRecord(t *testing.T) {
	w := at(StepReview)

	_, err := w.BeginSubmit()
	var verrs *form.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := map[string]bool{}
	for _, f := range verrs.Fields {
		assert.False(t, fields[f.Field], "每个字段只报一条: %s", f.Field)
		fields[f.Field] = true
	}
	assert.True(t, fields[FieldTitle])
	assert.True(t, fields[FieldPictures])
	assert.True(t, fields[FieldPrice])
	assert.True(t, fields[FieldWarrantyType])
	assert.False(t, w.Submitting())
}

func TestWizard_NoneWarrantySubmitsZeroDuration(t *testing.T) {
	w := fill(t)
	require.NoError(t, w.JumpToEdit(GroupWarranty))
	require.NoError(t, w.Select(StepWarrantyType, string(WarrantyNone)))

	sub, err := w.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, WarrantyNone, sub.WarrantyType)
	assert.Equal(t, 0, sub.WarrantyDurationTime)
}

// ==================== 快照 ====================

func TestWizard_StateRoundTrip(t *testing.T) {
	w := fill(t)
	require.NoError(t, w.JumpToEdit(GroupWarranty))

	data, err := json.Marshal(w.State())
	require.NoError(t, err)

	var s State
	require.NoError(t, json.Unmarshal(data, &s))
	restored := FromState(s)

	assert.Equal(t, w.Record(), restored.Record())
	assert.Equal(t, StepWarrantyType, restored.Active())
	restored.SetStep(int(StepWarrantyDuration))
	restored.NextStep()
	assert.Equal(t, StepReview, restored.Active())
}

func TestWizard_ViewRendersAllSteps(t *testing.T) {
	w := at(StepPrice)
	v := w.View("/api/listing-wizards/x")

	require.Len(t, v.Steps, StepCount)
	visible := 0
	for _, s := range v.Steps {
		if s.Visible {
			visible++
			assert.Equal(t, StepPrice, s.ID)
		}
	}
	assert.Equal(t, 1, visible)
	assert.Equal(t, "/api/listing-wizards/x?step=8", v.Location)
	assert.Equal(t, HistoryReplace, v.History)
}
