package intent_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/teslashibe/go-kiosk/pkg/intent"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"새우 추천 해줘", "새우추천해줘"},
		{"Coke  Large", "cokelarge"},
		{"\t콜라\n하나 ", "콜라하나"},
		{"ＡＢＣ 치즈", "ａｂｃ치즈"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := intent.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", "불고기 버거 두 개", "Zero Cola 라지", "   Mixed\tCASE 텍스트 "}
	for _, s := range inputs {
		once := intent.Normalize(s)
		if twice := intent.Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}

func TestDefaultMatcher(t *testing.T) {
	m := intent.DefaultMatcher()

	tests := []struct {
		ctx  intent.Context
		text string
		kind intent.Kind
		arg  string
	}{
		{intent.ContextHome, "포장이요", intent.KindChoose, "takeout"},
		{intent.ContextHome, "매장에서 먹고 갈게요", intent.KindChoose, "dinein"},

		{intent.ContextMenuBrowsing, "새우 추천해줘", intent.KindRecommend, "새우"},
		{intent.ContextMenuBrowsing, "새우버거 추천", intent.KindRecommend, "새우"},
		{intent.ContextMenuBrowsing, "추천해 주세요", intent.KindRecommend, ""},
		{intent.ContextMenuBrowsing, "불고기버거 하나 추가", intent.KindAddItem, ""},
		{intent.ContextMenuBrowsing, "콜라 하나 더 주세요", intent.KindAddItem, ""},
		{intent.ContextMenuBrowsing, "치즈버거 하나 빼줘", intent.KindRemoveItem, ""},
		{intent.ContextMenuBrowsing, "치즈버거 주세요", intent.KindAddItem, ""},
		{intent.ContextMenuBrowsing, "장바구니 비워줘", intent.KindClearCart, ""},
		{intent.ContextMenuBrowsing, "결제할게요", intent.KindCheckout, ""},
		{intent.ContextMenuBrowsing, "뒤로 가기", intent.KindNavigate, "back"},
		{intent.ContextMenuBrowsing, "안녕하세요", intent.KindUnrecognized, ""},
		{intent.ContextMenuBrowsing, "새우버거 주문 취소해줘", intent.KindRemoveItem, ""},
		{intent.ContextMenuBrowsing, "새우버거 주문할게요", intent.KindAddItem, ""},

		{intent.ContextMenuOption, "기본 세트로 주세요", intent.KindChoose, "default-set"},
		{intent.ContextMenuOption, "세트로 할게요", intent.KindChoose, "set"},
		{intent.ContextMenuOption, "단품이요", intent.KindChoose, "single"},

		{intent.ContextDrinkSelect, "제로콜라", intent.KindChoose, "zero-cola"},
		{intent.ContextDrinkSelect, "콜라 주세요", intent.KindChoose, "cola"},
		{intent.ContextDrinkSelect, "라지로 주세요", intent.KindSelectSize, "large"},
		{intent.ContextDrinkSelect, "미디엄", intent.KindSelectSize, "medium"},

		{intent.ContextSideSelect, "감자튀김", intent.KindChoose, "fries"},
		{intent.ContextSideSelect, "치킨텐더요", intent.KindChoose, "tenders"},
		{intent.ContextSideSelect, "큰 사이즈", intent.KindSelectSize, "large"},

		{intent.ContextRecommendation, "매운 걸로", intent.KindChoose, "chili"},
		{intent.ContextRecommendation, "트러플", intent.KindChoose, "truffle"},
		{intent.ContextRecommendation, "첫 번째", intent.KindChoose, "first"},
		{intent.ContextRecommendation, "두 번째 거", intent.KindChoose, "second"},

		{intent.ContextOrderConfirm, "결제할게요", intent.KindCheckout, ""},
		{intent.ContextOrderConfirm, "콜라 추가", intent.KindAddItem, ""},
		{intent.ContextOrderConfirm, "콜라 빼주세요", intent.KindRemoveItem, ""},
		{intent.ContextOrderConfirm, "전부 취소", intent.KindClearCart, ""},
		{intent.ContextOrderConfirm, "콜라 주문을 취소할게요", intent.KindRemoveItem, ""},

		{intent.ContextPoints, "적립 안 할래요", intent.KindChoose, "skip"},
		{intent.ContextPoints, "필요없어요", intent.KindChoose, "skip"},
		{intent.ContextPoints, "네 적립해 주세요", intent.KindChoose, "earn"},

		{intent.ContextPhoneInput, "공일공 일이삼사 오육칠팔", intent.KindDigits, "01012345678"},
		{intent.ContextPhoneInput, "010 9876", intent.KindDigits, "0109876"},
		{intent.ContextPhoneInput, "확인", intent.KindChoose, "confirm"},
		{intent.ContextPhoneInput, "확인이요", intent.KindChoose, "confirm"},
		{intent.ContextPhoneInput, "이제 확인", intent.KindChoose, "confirm"},
		{intent.ContextPhoneInput, "완료했어요", intent.KindChoose, "confirm"},
		{intent.ContextPhoneInput, "일이삼사 확인", intent.KindDigits, "1234"},
		{intent.ContextPhoneInput, "지워줘", intent.KindChoose, "reset"},

		{intent.ContextPaymentMethod, "카드로 할게요", intent.KindChoose, "card"},
		{intent.ContextPaymentMethod, "카카오페이", intent.KindChoose, "pay"},
		{intent.ContextPaymentMethod, "뒤로", intent.KindNavigate, "points"},
	}

	for _, tt := range tests {
		t.Run(string(tt.ctx)+"/"+tt.text, func(t *testing.T) {
			norm := intent.Normalize(tt.text)
			got := m.Match(norm, tt.ctx)
			if len(got) != 1 {
				t.Fatalf("expected exactly one candidate, got %d", len(got))
			}
			if got[0].Kind != tt.kind || got[0].Arg != tt.arg {
				t.Errorf("Match(%q, %s) = %v, want %s(%s)", norm, tt.ctx, got[0], tt.kind, tt.arg)
			}
			if got[0].Text != norm {
				t.Errorf("Text = %q, want %q", got[0].Text, norm)
			}
			if got[0].Context != tt.ctx {
				t.Errorf("Context = %q, want %q", got[0].Context, tt.ctx)
			}
		})
	}
}

func TestMatchRecommendationBeforeFallback(t *testing.T) {
	m := intent.DefaultMatcher()
	got := m.Primary("새우추천해줘", intent.ContextMenuBrowsing)
	if got.Kind != intent.KindRecommend || got.Arg != "새우" {
		t.Fatalf("got %v, want request_recommendation(새우)", got)
	}
}

func TestMatchFirstRuleWins(t *testing.T) {
	m, err := intent.NewMatcher(intent.RuleSet{
		intent.ContextMenuBrowsing: {
			{Pattern: "버거", Kind: intent.KindChoose, Arg: "p1"},
			{Pattern: "불고기", Kind: intent.KindChoose, Arg: "p2"},
		},
	})
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}

	got := m.Match("불고기버거", intent.ContextMenuBrowsing)
	if len(got) != 1 || got[0].Arg != "p1" {
		t.Fatalf("got %v, want only p1", got)
	}
	if got := m.Primary("불고기", intent.ContextMenuBrowsing); got.Arg != "p2" {
		t.Errorf("got %v, want p2", got)
	}
}

func TestMatchUnknownContext(t *testing.T) {
	m := intent.DefaultMatcher()
	got := m.Primary("콜라", intent.Context("kitchen"))
	if got.Kind != intent.KindUnrecognized {
		t.Errorf("got %v, want unrecognized", got)
	}
}

func TestEveryContextHasRules(t *testing.T) {
	m := intent.DefaultMatcher()
	for _, ctx := range intent.Contexts {
		if m.Rules(ctx) == 0 {
			t.Errorf("context %s has no rules", ctx)
		}
	}
}

func TestNewMatcherRejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		rs   intent.RuleSet
	}{
		{"bad pattern", intent.RuleSet{intent.ContextHome: {{Pattern: "(", Kind: intent.KindChoose}}}},
		{"empty pattern", intent.RuleSet{intent.ContextHome: {{Pattern: "", Kind: intent.KindChoose}}}},
		{"unknown kind", intent.RuleSet{intent.ContextHome: {{Pattern: "a", Kind: "dance"}}}},
		{"missing group", intent.RuleSet{intent.ContextHome: {{Pattern: "a", Kind: intent.KindRecommend, Capture: "kw"}}}},
		{"unknown context", intent.RuleSet{"kitchen": {{Pattern: "a", Kind: intent.KindChoose}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := intent.NewMatcher(tt.rs)
			if !errors.Is(err, intent.ErrInvalidRule) {
				t.Errorf("expected ErrInvalidRule, got %v", err)
			}
		})
	}
}

func TestLoadRules(t *testing.T) {
	doc := `
points:
  - pattern: "싫어"
    kind: choose
    arg: skip
`
	rs, err := intent.LoadRules(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	m, err := intent.NewMatcher(rs)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	if got := m.Primary("싫어요", intent.ContextPoints); got.Arg != "skip" {
		t.Errorf("got %v, want choose(skip)", got)
	}

	_, err = intent.LoadRules(strings.NewReader("points:\n  - patern: x\n"))
	if !errors.Is(err, intent.ErrInvalidRule) {
		t.Errorf("expected ErrInvalidRule for unknown field, got %v", err)
	}
}

func TestExtractDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"공일공", "010"},
		{"영일영하나둘셋", "010123"},
		{"일곱여덟아홉", "789"},
		{"제로다섯여섯", "056"},
		{"010-1234", "0101234"},
		{"확인", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := intent.ExtractDigits(tt.in); got != tt.want {
				t.Errorf("ExtractDigits(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatPhone(t *testing.T) {
	if got := intent.FormatPhone("01012345678"); got != "010-1234-5678" {
		t.Errorf("got %q", got)
	}
	if got := intent.FormatPhone("0111234567"); got != "011-123-4567" {
		t.Errorf("got %q", got)
	}
	if got := intent.FormatPhone("0101"); got != "0101" {
		t.Errorf("got %q", got)
	}
}
