package kiosk_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/intent"
	"github.com/teslashibe/go-kiosk/pkg/kiosk"
	"github.com/teslashibe/go-kiosk/pkg/order"
)

var seed = catalog.NewSnapshot(catalog.Seed())

func said(kind intent.Kind, text string) intent.Intent {
	return intent.Intent{Kind: kind, Text: intent.Normalize(text)}
}

func cola(qty int) order.Line {
	return order.Line{ItemID: "cola", DisplayName: "콜라", UnitPrice: 2000, Quantity: qty}
}

func resolveApply(t *testing.T, in intent.Intent, cart order.Cart, sc kiosk.ScreenContext) (kiosk.Action, order.Cart) {
	t.Helper()
	r := &kiosk.Resolver{}
	act := r.Resolve(context.Background(), in, cart, seed, sc)
	next, err := kiosk.Apply(cart, act)
	require.NoError(t, err)
	return act, next
}

func TestAddBurgerToEmptyCart(t *testing.T) {
	act, cart := resolveApply(t, said(intent.KindAddItem, "새우버거 하나 추가"), order.Cart{},
		kiosk.ScreenContext{Screen: kiosk.ScreenOrderConfirm})

	require.Equal(t, kiosk.ActionAdd, act.Kind)
	require.Equal(t, 1, cart.Len())
	require.Equal(t, 5000, cart.Total())
	line, ok := cart.Find("shrimp")
	require.True(t, ok)
	require.Equal(t, 1, line.Quantity)
}

func TestRemoveColaDecrements(t *testing.T) {
	start, err := order.New(cola(2))
	require.NoError(t, err)

	act, cart := resolveApply(t, said(intent.KindRemoveItem, "콜라 빼줘"), start,
		kiosk.ScreenContext{Screen: kiosk.ScreenOrderConfirm})

	require.Equal(t, kiosk.ActionRemove, act.Kind)
	require.Equal(t, 1, cart.Quantity("cola"))
	require.Equal(t, 2000, cart.Total())
	require.Equal(t, 2, start.Quantity("cola"), "input cart must not change")
}

func TestRemoveLastColaEmptiesCart(t *testing.T) {
	start, err := order.New(cola(1))
	require.NoError(t, err)

	_, cart := resolveApply(t, said(intent.KindRemoveItem, "콜라 빼줘"), start,
		kiosk.ScreenContext{Screen: kiosk.ScreenOrderConfirm})

	require.True(t, cart.IsEmpty())
	require.Equal(t, 0, cart.Total())
}

func TestRemoveAbsentAcknowledges(t *testing.T) {
	act, cart := resolveApply(t, said(intent.KindRemoveItem, "콜라 빼줘"), order.Cart{},
		kiosk.ScreenContext{Screen: kiosk.ScreenMenuBrowsing})

	require.Equal(t, kiosk.ActionNone, act.Kind)
	require.NotEmpty(t, act.Speech)
	require.True(t, cart.IsEmpty())
}

func TestCheckoutEmptyCartClarifies(t *testing.T) {
	for _, screen := range []kiosk.Screen{kiosk.ScreenMenuBrowsing, kiosk.ScreenOrderConfirm} {
		t.Run(string(screen), func(t *testing.T) {
			act, _ := resolveApply(t, intent.Checkout(), order.Cart{}, kiosk.ScreenContext{Screen: screen})

			require.Equal(t, kiosk.ActionClarify, act.Kind)
			require.ErrorIs(t, act.Err, kiosk.ErrEmptyCart)
			require.False(t, act.Navigates())
		})
	}
}

func TestCheckoutAdvances(t *testing.T) {
	cart, err := order.New(cola(1))
	require.NoError(t, err)

	act, _ := resolveApply(t, intent.Checkout(), cart, kiosk.ScreenContext{Screen: kiosk.ScreenMenuBrowsing})
	require.Equal(t, kiosk.ScreenOrderConfirm, act.Target)

	act, _ = resolveApply(t, intent.Checkout(), cart, kiosk.ScreenContext{Screen: kiosk.ScreenOrderConfirm})
	require.Equal(t, kiosk.ScreenPoints, act.Target)
}

func TestAddUnknownItemClarifies(t *testing.T) {
	start, err := order.New(cola(1))
	require.NoError(t, err)

	act, cart := resolveApply(t, said(intent.KindAddItem, "피자 주세요"), start,
		kiosk.ScreenContext{Screen: kiosk.ScreenMenuBrowsing})

	require.Equal(t, kiosk.ActionClarify, act.Kind)
	require.ErrorIs(t, act.Err, kiosk.ErrUnknownItem)
	require.True(t, cart.Equal(start))
}

func TestAddBurgerWhileBrowsingOpensOptions(t *testing.T) {
	act, cart := resolveApply(t, said(intent.KindAddItem, "불고기버거 주세요"), order.Cart{},
		kiosk.ScreenContext{Screen: kiosk.ScreenMenuBrowsing})

	require.Equal(t, kiosk.ScreenMenuOption, act.Target)
	require.NotNil(t, act.Pending)
	require.Equal(t, "bulgogi", act.Pending.MenuID)
	require.True(t, cart.IsEmpty())
}

func TestAddDrinkAloneIsSized(t *testing.T) {
	tests := []struct {
		text  string
		id    string
		price int
	}{
		{"사이다 주세요", "cider_medium", 2000},
		{"사이다 라지로 주세요", "cider_large", 2500},
		{"감자튀김 큰 걸로 주세요", "fries_large", 4000},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, cart := resolveApply(t, said(intent.KindAddItem, tt.text), order.Cart{},
				kiosk.ScreenContext{Screen: kiosk.ScreenMenuBrowsing})
			line, ok := cart.Find(tt.id)
			require.True(t, ok, "lines: %+v", cart.Lines())
			require.Equal(t, tt.price, line.UnitPrice)
		})
	}
}

func TestSelectSizeWithoutPendingIsUnrecognized(t *testing.T) {
	act, _ := resolveApply(t, intent.SelectSize("large"), order.Cart{},
		kiosk.ScreenContext{Screen: kiosk.ScreenDrinkSelect, Pending: kiosk.Pending{MenuID: "shrimp"}})

	require.Equal(t, kiosk.ActionRepeat, act.Kind)
	require.ErrorIs(t, act.Err, kiosk.ErrUnrecognizedSpeech)
}

func TestDefaultSet(t *testing.T) {
	sc := kiosk.ScreenContext{
		Screen:  kiosk.ScreenMenuOption,
		Pending: kiosk.Pending{MenuID: "shrimp", MenuName: "새우버거", MenuPrice: 5000},
	}
	act, cart := resolveApply(t, intent.Choose(kiosk.ChoiceDefaultSet), order.Cart{}, sc)

	require.Equal(t, kiosk.ScreenMenuBrowsing, act.Target)
	line, ok := cart.Find("shrimp_set_default")
	require.True(t, ok)
	require.Equal(t, 10000, line.UnitPrice)
	require.Len(t, line.Variant.Components, 2)

	_, cart = resolveApply(t, intent.Choose(kiosk.ChoiceDefaultSet), cart, sc)
	require.Equal(t, 2, cart.Quantity("shrimp_set_default"))
}

type failingSearch struct{}

func (failingSearch) Menu(context.Context) ([]catalog.MenuItem, error) { return nil, errors.New("down") }
func (failingSearch) Search(context.Context, string) ([]catalog.MenuItem, error) {
	return nil, errors.New("down")
}

func TestRecommend(t *testing.T) {
	r := &kiosk.Resolver{}
	sc := kiosk.ScreenContext{Screen: kiosk.ScreenMenuBrowsing}

	act := r.Resolve(context.Background(), intent.Recommend("새우"), order.Cart{}, seed, sc)
	require.Equal(t, kiosk.ScreenRecommendation, act.Target)
	require.Len(t, act.Recommendations, 2)
	require.Equal(t, "chili", act.Recommendations[0].ID)
	require.Equal(t, "truffle", act.Recommendations[1].ID)

	act = r.Resolve(context.Background(), intent.Recommend("피자"), order.Cart{}, seed, sc)
	require.Equal(t, kiosk.ActionClarify, act.Kind)
	require.False(t, act.Navigates())

	act = r.Resolve(context.Background(), intent.Recommend(""), order.Cart{}, seed, sc)
	require.Equal(t, kiosk.ActionClarify, act.Kind)

	failing := &kiosk.Resolver{Search: failingSearch{}}
	act = failing.Resolve(context.Background(), intent.Recommend("새우"), order.Cart{}, seed, sc)
	require.Equal(t, kiosk.ActionClarify, act.Kind)
	require.ErrorIs(t, act.Err, kiosk.ErrUpstream)
}

func TestChooseRecommendation(t *testing.T) {
	recs := []catalog.MenuItem{}
	for _, id := range []string{"chili", "truffle"} {
		it, _ := seed.Get(id)
		recs = append(recs, it)
	}
	sc := kiosk.ScreenContext{Screen: kiosk.ScreenRecommendation, Recommendations: recs}

	act, cart := resolveApply(t, intent.Choose(kiosk.ChoiceSecond), order.Cart{}, sc)
	require.Equal(t, kiosk.ScreenMenuBrowsing, act.Target)
	require.Equal(t, 6000, cart.Total())

	act, cart = resolveApply(t, intent.Choose("chili"), order.Cart{}, sc)
	require.Equal(t, kiosk.ActionAdd, act.Kind)
	require.Equal(t, 1, cart.Quantity("chili"))

	act, cart = resolveApply(t, intent.Choose("truffle"), order.Cart{}, sc)
	require.Equal(t, kiosk.ActionAdd, act.Kind)
	require.Equal(t, 1, cart.Quantity("truffle"))

	act, _ = resolveApply(t, intent.Choose("shrimp"), order.Cart{}, sc)
	require.Equal(t, kiosk.ActionClarify, act.Kind)
	require.ErrorIs(t, act.Err, kiosk.ErrUnknownItem)
}

func TestPhoneDigits(t *testing.T) {
	sc := kiosk.ScreenContext{Screen: kiosk.ScreenPhoneInput, Phone: "0101234"}

	act, _ := resolveApply(t, intent.Digits("56789"), order.Cart{}, sc)
	require.NotNil(t, act.Phone)
	require.Equal(t, "01012345678", *act.Phone)

	act, _ = resolveApply(t, intent.Choose(kiosk.ChoiceConfirm), order.Cart{}, sc)
	require.Equal(t, kiosk.ActionClarify, act.Kind)

	sc.Phone = "01012345678"
	act, _ = resolveApply(t, intent.Choose(kiosk.ChoiceConfirm), order.Cart{}, sc)
	require.Equal(t, kiosk.ScreenPayment, act.Target)
	require.Contains(t, act.Speech, "010-1234-5678")
}

func TestPaymentNeedsItems(t *testing.T) {
	sc := kiosk.ScreenContext{Screen: kiosk.ScreenPayment}

	act, _ := resolveApply(t, intent.Choose(string(kiosk.PaymentCard)), order.Cart{}, sc)
	require.ErrorIs(t, act.Err, kiosk.ErrEmptyCart)

	cart, err := order.New(cola(1))
	require.NoError(t, err)
	act, _ = resolveApply(t, intent.Choose(string(kiosk.PaymentPay)), cart, sc)
	require.Equal(t, kiosk.ActionComplete, act.Kind)
	require.Equal(t, kiosk.PaymentPay, act.Payment)
	require.Equal(t, "페이 결제를 선택하셨습니다. 결제가 완료되었습니다.", act.Speech)
}

func TestApplyRejectsAddWithoutID(t *testing.T) {
	start, err := order.New(cola(1))
	require.NoError(t, err)

	got, err := kiosk.Apply(start, kiosk.Action{Kind: kiosk.ActionAdd})
	require.ErrorIs(t, err, order.ErrInvalidCart)
	require.True(t, got.Equal(start))
}
