package kiosk

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/intent"
)

// Screen is one step of the ordering flow.
type Screen string

// Screens, in flow order.
const (
	ScreenHome           Screen = "home"
	ScreenMenuBrowsing   Screen = "menu-browsing"
	ScreenMenuOption     Screen = "menu-option"
	ScreenDrinkSelect    Screen = "drink-select"
	ScreenSideSelect     Screen = "side-select"
	ScreenRecommendation Screen = "recommendation"
	ScreenOrderConfirm   Screen = "order-confirm"
	ScreenPoints         Screen = "points"
	ScreenPhoneInput     Screen = "phone-input"
	ScreenPayment        Screen = "payment-method"
)

// Context is the matcher context of the screen.
func (s Screen) Context() intent.Context { return intent.Context(s) }

// Valid reports whether s is a known screen.
func (s Screen) Valid() bool {
	for _, c := range intent.Contexts {
		if intent.Context(s) == c {
			return true
		}
	}
	return false
}

// OrderType is chosen on the home screen.
type OrderType string

// Order types.
const (
	OrderTakeout OrderType = "takeout"
	OrderDineIn  OrderType = "dinein"
)

// PaymentMethod completes an order.
type PaymentMethod string

// Payment methods.
const (
	PaymentCard PaymentMethod = "card"
	PaymentPay  PaymentMethod = "pay"
)

// Choice values produced by the default rule tables.
const (
	ChoiceSingle     = "single"
	ChoiceSet        = "set"
	ChoiceDefaultSet = "default-set"
	ChoiceFirst      = "first"
	ChoiceSecond     = "second"
	ChoiceEarn       = "earn"
	ChoiceSkip       = "skip"
	ChoiceConfirm    = "confirm"
	ChoiceReset      = "reset"
)

// Navigation targets besides screen names.
const (
	TargetBack = "back"
	TargetHome = "home"
)

// Prompt is what the kiosk says on entering a screen.
func Prompt(s Screen, sc ScreenContext, snap *catalog.Snapshot) string {
	switch s {
	case ScreenHome:
		return "포장하시겠어요, 매장에서 드시겠어요?"
	case ScreenMenuBrowsing:
		return "어떤 메뉴를 드릴까요? 메뉴 이름을 말씀하시거나 추천해 달라고 말씀해주세요."
	case ScreenMenuOption:
		return "단품, 세트, 기본 세트 중 하나를 말씀해주세요."
	case ScreenDrinkSelect:
		if sc.Pending.Drink != "" {
			return "미디움 또는 라지 사이즈를 말씀해주세요."
		}
		return listPrompt(snap, catalog.CategoryDrink, "콜라, 제로콜라, 사이다, 커피")
	case ScreenSideSelect:
		if sc.Pending.Side != "" {
			return "미디움 또는 라지 사이즈를 말씀해주세요."
		}
		return listPrompt(snap, catalog.CategorySide, "감자튀김, 치킨텐더, 샐러드")
	case ScreenRecommendation:
		names := make([]string, 0, len(sc.Recommendations))
		for _, it := range sc.Recommendations {
			names = append(names, it.Name)
		}
		if len(names) == 0 {
			return "추천 메뉴가 없어요. 뒤로 가서 다시 말씀해주세요."
		}
		return fmt.Sprintf("%s 중에서 골라주세요. 첫 번째 또는 두 번째라고 말씀하셔도 돼요.", strings.Join(names, ", "))
	case ScreenOrderConfirm:
		return "주문 내역을 확인해주세요. 추가하거나 뺄 메뉴가 있으면 말씀하시고, 결제하시려면 결제라고 말씀해주세요."
	case ScreenPoints:
		return "적립 하시겠어요?"
	case ScreenPhoneInput:
		return "핸드폰 번호를 눌러주세요"
	case ScreenPayment:
		return "카드결제 또는 페이결제 중 선택해주세요."
	}
	return "다시 말씀해 주시겠어요?"
}

func listPrompt(snap *catalog.Snapshot, c catalog.Category, fallback string) string {
	list := fallback
	if snap != nil {
		if items := snap.ByCategory(c); len(items) > 0 {
			names := make([]string, len(items))
			for i, it := range items {
				names[i] = it.Name
			}
			list = strings.Join(names, ", ")
		}
	}
	return list + " 중 하나를 말씀해주세요."
}
