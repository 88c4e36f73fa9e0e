package kiosk

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/intent"
	"github.com/teslashibe/go-kiosk/pkg/order"
)

// DefaultRecommendLimit caps recommendation results.
const DefaultRecommendLimit = 2

// Resolver turns intents into actions. It has no side effects besides the
// catalog search made for recommendations.
type Resolver struct {
	// Search serves recommendation lookups. When nil the snapshot passed to
	// Resolve is searched instead.
	Search catalog.Catalog
	// Limit caps recommendation results. Zero means DefaultRecommendLimit.
	Limit int
}

// Resolve decides the action for in, given the current cart, a menu
// snapshot and the screen state.
func (r *Resolver) Resolve(ctx context.Context, in intent.Intent, cart order.Cart, snap *catalog.Snapshot, sc ScreenContext) Action {
	switch in.Kind {
	case intent.KindAddItem:
		return r.addItem(in, cart, snap, sc)
	case intent.KindRemoveItem:
		return r.removeItem(in, cart, snap)
	case intent.KindSelectSize:
		return r.selectSize(in, snap, sc)
	case intent.KindNavigate:
		return r.navigate(in, sc)
	case intent.KindRecommend:
		return r.recommend(ctx, in, snap)
	case intent.KindCheckout:
		return r.checkout(cart, sc)
	case intent.KindClearCart:
		return Action{Kind: ActionClear, Speech: "장바구니를 모두 비웠어요."}
	case intent.KindChoose:
		return r.choose(in, cart, snap, sc)
	case intent.KindDigits:
		return r.digits(in, sc)
	case intent.KindClarify:
		return clarify(nil, in.Arg)
	}
	return unrecognized(sc, snap)
}

func unrecognized(sc ScreenContext, snap *catalog.Snapshot) Action {
	return Action{Kind: ActionRepeat, Err: ErrUnrecognizedSpeech, Speech: Prompt(sc.Screen, sc, snap)}
}

func lookup(in intent.Intent, snap *catalog.Snapshot) (catalog.MenuItem, bool) {
	if snap == nil {
		return catalog.MenuItem{}, false
	}
	if in.Ref != "" {
		return snap.Get(in.Ref)
	}
	return snap.BestMatch(in.Text)
}

func unknownItem() Action {
	return clarify(ErrUnknownItem, "말씀하신 메뉴를 찾지 못했어요. 메뉴 이름을 다시 말씀해 주시겠어요?")
}

func (r *Resolver) addItem(in intent.Intent, cart order.Cart, snap *catalog.Snapshot, sc ScreenContext) Action {
	item, ok := lookup(in, snap)
	if !ok {
		return unknownItem()
	}

	if sc.Screen == ScreenMenuBrowsing && item.Category == catalog.CategoryBurger {
		return Action{
			Kind:    ActionNone,
			Target:  ScreenMenuOption,
			Pending: &Pending{MenuID: item.ID, MenuName: item.Name, MenuPrice: item.Price},
			Speech:  fmt.Sprintf("%s 선택하셨어요. 단품, 세트, 기본 세트 중 하나를 말씀해주세요.", eul(item.Name)),
		}
	}

	if sc.Screen == ScreenOrderConfirm {
		if line, found := cartLineFor(cart, item.ID); found {
			return Action{Kind: ActionAdd, Line: line, Speech: fmt.Sprintf("%s 추가했어요.", eul(line.DisplayName))}
		}
	}

	line := lineFor(item, in.Text)
	return Action{Kind: ActionAdd, Line: line, Speech: fmt.Sprintf("%s 담았어요.", line.DisplayName)}
}

func (r *Resolver) removeItem(in intent.Intent, cart order.Cart, snap *catalog.Snapshot) Action {
	item, ok := lookup(in, snap)
	if !ok {
		return unknownItem()
	}
	line, found := cartLineFor(cart, item.ID)
	if !found {
		return none(fmt.Sprintf("%s 장바구니에 없어요.", eun(item.Name)))
	}
	speech := fmt.Sprintf("%s 장바구니에서 비웠어요.", eul(line.DisplayName))
	if line.Quantity > 1 {
		speech = fmt.Sprintf("%s 한 개 뺐어요.", line.DisplayName)
	}
	return Action{Kind: ActionRemove, ItemID: line.ItemID, Speech: speech}
}

// cartLineFor finds the cart line of a menu item: the exact id first, then
// the first sized or set line derived from it.
func cartLineFor(cart order.Cart, itemID string) (order.Line, bool) {
	if l, ok := cart.Find(itemID); ok {
		return l, true
	}
	prefix := itemID + "_"
	for _, l := range cart.Lines() {
		if strings.HasPrefix(l.ItemID, prefix) {
			return l, true
		}
	}
	return order.Line{}, false
}

// lineFor builds the cart line for an item ordered on its own. Drinks and
// sides get a size, large when the transcript asks for it.
func lineFor(item catalog.MenuItem, text string) order.Line {
	switch item.Category {
	case catalog.CategoryDrink, catalog.CategorySide:
		size := sizeIn(text)
		price := item.Price
		if size == order.SizeLarge {
			if item.Category == catalog.CategoryDrink {
				price += order.DrinkLargePrice - order.DrinkMediumPrice
			} else {
				price += order.SideLargePrice - order.SideMediumPrice
			}
		}
		return order.Line{
			ItemID:      order.SizedID(item.ID, size),
			DisplayName: item.Name + " " + size.Label(),
			UnitPrice:   price,
			Variant:     &order.Variant{Size: size},
		}
	}
	return order.Line{ItemID: item.ID, DisplayName: item.Name, UnitPrice: item.Price}
}

func sizeIn(text string) order.Size {
	for _, w := range []string{"라지", "큰", "large"} {
		if strings.Contains(text, w) {
			return order.SizeLarge
		}
	}
	return order.SizeMedium
}

func (r *Resolver) selectSize(in intent.Intent, snap *catalog.Snapshot, sc ScreenContext) Action {
	size, ok := order.ParseSize(in.Arg)
	if !ok || !sc.AwaitingSize() {
		return unrecognized(sc, snap)
	}

	p := sc.Pending
	if sc.Screen == ScreenDrinkSelect {
		p.DrinkSize = size
		p.Side, p.SideSize = "", ""
		return Action{
			Kind:    ActionNone,
			Target:  ScreenSideSelect,
			Pending: &p,
			Speech:  fmt.Sprintf("%s 사이즈를 선택하셨어요. 사이드를 선택해주세요.", size.Label()),
		}
	}

	p.SideSize = size
	line, err := composedSet(p, snap)
	if err != nil {
		return clarify(err, "세트 구성을 찾지 못했어요. 메뉴를 다시 선택해주세요.")
	}
	return Action{
		Kind:    ActionAdd,
		Line:    line,
		Target:  ScreenMenuBrowsing,
		Pending: &Pending{},
		Speech:  fmt.Sprintf("%s 사이즈를 선택하셨어요. %s 담았어요.", size.Label(), line.DisplayName),
	}
}

func composedSet(p Pending, snap *catalog.Snapshot) (order.Line, error) {
	if p.MenuID == "" || p.Drink == "" || p.Side == "" {
		return order.Line{}, ErrUnknownItem
	}
	drinkName, sideName := p.Drink, p.Side
	if snap != nil {
		if d, ok := snap.Get(p.Drink); ok {
			drinkName = d.Name
		}
		if s, ok := snap.Get(p.Side); ok {
			sideName = s.Name
		}
	}
	drinkPrice, sidePrice := order.DrinkPrice(p.DrinkSize), order.SidePrice(p.SideSize)
	return order.Line{
		ItemID:      order.SetID(p.MenuID, p.Drink, p.DrinkSize, p.Side, p.SideSize),
		DisplayName: p.MenuName + " 세트",
		UnitPrice:   p.MenuPrice + drinkPrice + sidePrice,
		Variant: &order.Variant{Components: []order.Component{
			{Name: drinkName, Size: p.DrinkSize, Price: drinkPrice},
			{Name: sideName, Size: p.SideSize, Price: sidePrice},
		}},
	}, nil
}

func defaultSet(p Pending) order.Line {
	return order.Line{
		ItemID:      order.DefaultSetID(p.MenuID),
		DisplayName: p.MenuName + " 기본 세트",
		UnitPrice:   p.MenuPrice + order.DrinkMediumPrice + order.SideMediumPrice,
		Variant: &order.Variant{Components: []order.Component{
			{Name: "콜라", Size: order.SizeMedium, Price: order.DrinkMediumPrice},
			{Name: "감자튀김", Size: order.SizeMedium, Price: order.SideMediumPrice},
		}},
	}
}

func (r *Resolver) navigate(in intent.Intent, sc ScreenContext) Action {
	switch in.Arg {
	case TargetBack:
		return Action{Kind: ActionBack}
	case TargetHome:
		return Action{Kind: ActionClear, Target: ScreenHome, Speech: "처음 화면으로 돌아갈게요."}
	}
	target := Screen(in.Arg)
	if !target.Valid() || target == sc.Screen {
		return Action{Kind: ActionBack}
	}
	return Action{Kind: ActionNone, Target: target, Rewind: true}
}

func (r *Resolver) recommend(ctx context.Context, in intent.Intent, snap *catalog.Snapshot) Action {
	keyword := strings.TrimSpace(in.Arg)
	if keyword == "" {
		return clarify(nil, "어떤 메뉴를 추천해 드릴까요? 예를 들어 새우 추천해줘라고 말씀해주세요.")
	}

	var (
		items []catalog.MenuItem
		err   error
	)
	if r.Search != nil {
		items, err = r.Search.Search(ctx, keyword)
	} else if snap != nil {
		items = snap.Search(keyword)
	}
	if err != nil {
		return clarify(fmt.Errorf("%w: menu search: %v", ErrUpstream, err),
			"지금은 추천 메뉴를 불러오지 못했어요. 메뉴 이름을 직접 말씀해주세요.")
	}

	items = rankRecommendations(items)
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultRecommendLimit
	}
	if len(items) > limit {
		items = items[:limit]
	}
	if len(items) == 0 {
		return clarify(nil, fmt.Sprintf("%s 관련 메뉴를 찾지 못했어요. 다른 메뉴를 말씀해주세요.", keyword))
	}

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return Action{
		Kind:            ActionNone,
		Target:          ScreenRecommendation,
		Recommendations: items,
		Speech:          fmt.Sprintf("%s 메뉴로 %s 추천해요. 첫 번째 또는 두 번째를 말씀해주세요.", keyword, eul(strings.Join(names, ", "))),
	}
}

func (r *Resolver) checkout(cart order.Cart, sc ScreenContext) Action {
	if cart.IsEmpty() {
		return clarify(ErrEmptyCart, "장바구니가 비어 있어요. 메뉴를 먼저 담아주세요.")
	}
	switch sc.Screen {
	case ScreenMenuBrowsing:
		return Action{Kind: ActionNone, Target: ScreenOrderConfirm,
			Speech: fmt.Sprintf("주문 내역을 확인해주세요. 총 %d원이에요.", cart.Total())}
	case ScreenOrderConfirm:
		return Action{Kind: ActionNone, Target: ScreenPoints, Speech: Prompt(ScreenPoints, sc, nil)}
	}
	return Action{Kind: ActionRepeat, Err: ErrUnrecognizedSpeech, Speech: Prompt(sc.Screen, sc, nil)}
}

func (r *Resolver) digits(in intent.Intent, sc ScreenContext) Action {
	if sc.Screen != ScreenPhoneInput || in.Arg == "" {
		return unrecognized(sc, nil)
	}
	phone := sc.Phone + in.Arg
	if len(phone) > intent.MaxPhoneDigits {
		phone = phone[:intent.MaxPhoneDigits]
	}
	return Action{Kind: ActionNone, Phone: strPtr(phone), Speech: fmt.Sprintf("%s 입력했습니다.", in.Arg)}
}

func (r *Resolver) choose(in intent.Intent, cart order.Cart, snap *catalog.Snapshot, sc ScreenContext) Action {
	switch sc.Screen {
	case ScreenHome:
		return chooseOrderType(in.Arg, sc, snap)
	case ScreenMenuOption:
		return chooseOption(in.Arg, sc, snap)
	case ScreenDrinkSelect:
		return chooseComponent(in.Arg, catalog.CategoryDrink, sc, snap)
	case ScreenSideSelect:
		return chooseComponent(in.Arg, catalog.CategorySide, sc, snap)
	case ScreenRecommendation:
		return chooseRecommendation(in.Arg, sc, snap)
	case ScreenPoints:
		return choosePoints(in.Arg, sc, snap)
	case ScreenPhoneInput:
		return choosePhone(in.Arg, sc, snap)
	case ScreenPayment:
		return choosePayment(in.Arg, cart, sc, snap)
	}
	return unrecognized(sc, snap)
}

func chooseOrderType(v string, sc ScreenContext, snap *catalog.Snapshot) Action {
	var speech string
	switch OrderType(v) {
	case OrderTakeout:
		speech = "포장으로 주문할게요. 어떤 메뉴를 드릴까요?"
	case OrderDineIn:
		speech = "매장에서 드시는 걸로 주문할게요. 어떤 메뉴를 드릴까요?"
	default:
		return unrecognized(sc, snap)
	}
	return Action{Kind: ActionNone, Target: ScreenMenuBrowsing, OrderType: OrderType(v), Speech: speech}
}

func chooseOption(v string, sc ScreenContext, snap *catalog.Snapshot) Action {
	p := sc.Pending
	if p.MenuID == "" {
		return clarify(ErrUnknownItem, "먼저 메뉴를 선택해주세요.")
	}
	switch v {
	case ChoiceSingle:
		line := order.Line{ItemID: p.MenuID, DisplayName: p.MenuName, UnitPrice: p.MenuPrice}
		return Action{Kind: ActionAdd, Line: line, Target: ScreenMenuBrowsing, Pending: &Pending{},
			Speech: fmt.Sprintf("단품을 선택하셨어요. %s 담았어요.", p.MenuName)}
	case ChoiceSet:
		next := Pending{MenuID: p.MenuID, MenuName: p.MenuName, MenuPrice: p.MenuPrice}
		return Action{Kind: ActionNone, Target: ScreenDrinkSelect, Pending: &next,
			Speech: "세트를 선택하셨어요. 음료를 선택해주세요."}
	case ChoiceDefaultSet:
		line := defaultSet(p)
		return Action{Kind: ActionAdd, Line: line, Target: ScreenMenuBrowsing, Pending: &Pending{},
			Speech: fmt.Sprintf("기본 세트를 선택하셨어요. %s 담았어요.", line.DisplayName)}
	}
	return unrecognized(sc, snap)
}

func chooseComponent(v string, c catalog.Category, sc ScreenContext, snap *catalog.Snapshot) Action {
	if snap == nil {
		return unknownItem()
	}
	item, ok := snap.Get(v)
	if !ok || item.Category != c {
		return unknownItem()
	}
	p := sc.Pending
	if c == catalog.CategoryDrink {
		p.Drink, p.DrinkSize = item.ID, ""
	} else {
		p.Side, p.SideSize = item.ID, ""
	}
	return Action{Kind: ActionNone, Pending: &p,
		Speech: fmt.Sprintf("%s 선택하셨어요. 사이즈를 선택해주세요.", eul(item.Name))}
}

// rankRecommendations puts specialty items first: higher price wins, ties
// keep menu order. The plain item named by the keyword sorts last.
func rankRecommendations(items []catalog.MenuItem) []catalog.MenuItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b catalog.MenuItem) int {
		return cmp.Compare(b.Price, a.Price)
	})
	return out
}

func chooseRecommendation(v string, sc ScreenContext, snap *catalog.Snapshot) Action {
	recs := sc.Recommendations
	var (
		item  catalog.MenuItem
		found bool
	)
	switch v {
	case ChoiceFirst:
		if len(recs) > 0 {
			item, found = recs[0], true
		}
	case ChoiceSecond:
		if len(recs) > 1 {
			item, found = recs[1], true
		}
	default:
		for _, it := range recs {
			if it.ID == v || hasKeyword(it, v) {
				item, found = it, true
				break
			}
		}
	}
	if !found {
		return clarify(ErrUnknownItem, Prompt(ScreenRecommendation, sc, snap))
	}
	line := lineFor(item, "")
	return Action{
		Kind:            ActionAdd,
		Line:            line,
		Target:          ScreenMenuBrowsing,
		Recommendations: []catalog.MenuItem{},
		Speech:          fmt.Sprintf("%s 장바구니에 담았어요.", eul(item.Name)),
	}
}

func hasKeyword(it catalog.MenuItem, v string) bool {
	for _, k := range it.Keywords {
		if strings.EqualFold(k, v) {
			return true
		}
	}
	return false
}

func choosePoints(v string, sc ScreenContext, snap *catalog.Snapshot) Action {
	switch v {
	case ChoiceEarn:
		return Action{Kind: ActionNone, Target: ScreenPhoneInput, Phone: strPtr(""),
			Speech: "핸드폰 번호로 적립하시겠어요? " + Prompt(ScreenPhoneInput, sc, snap)}
	case ChoiceSkip:
		return Action{Kind: ActionNone, Target: ScreenPayment, Phone: strPtr(""),
			Speech: "적립 없이 결제하시겠어요? " + Prompt(ScreenPayment, sc, snap)}
	}
	return unrecognized(sc, snap)
}

func choosePhone(v string, sc ScreenContext, snap *catalog.Snapshot) Action {
	switch v {
	case ChoiceConfirm:
		if len(sc.Phone) < intent.MinPhoneDigits {
			return clarify(nil, "핸드폰 번호를 모두 입력해주세요.")
		}
		return Action{Kind: ActionNone, Target: ScreenPayment,
			Speech: fmt.Sprintf("%s 번호로 적립하고 결제하시겠어요? %s", intent.FormatPhone(sc.Phone), Prompt(ScreenPayment, sc, snap))}
	case ChoiceReset:
		return Action{Kind: ActionNone, Phone: strPtr(""), Speech: "번호를 지웠어요. 번호를 말씀해주세요."}
	}
	return unrecognized(sc, snap)
}

func choosePayment(v string, cart order.Cart, sc ScreenContext, snap *catalog.Snapshot) Action {
	var label string
	switch PaymentMethod(v) {
	case PaymentCard:
		label = "카드"
	case PaymentPay:
		label = "페이"
	default:
		return unrecognized(sc, snap)
	}
	if cart.IsEmpty() {
		return clarify(ErrEmptyCart, "장바구니가 비어 있어요. 메뉴를 먼저 담아주세요.")
	}
	return Action{
		Kind:    ActionComplete,
		Target:  ScreenHome,
		Payment: PaymentMethod(v),
		Speech:  fmt.Sprintf("%s 결제를 선택하셨습니다. 결제가 완료되었습니다.", label),
	}
}
