package assistant

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-kiosk/pkg/catalog"
)

// SystemPrompt instructs the model to act as a slow, simple kiosk helper
// for senior customers.
const SystemPrompt = `당신은 시니어를 위한 키오스크 음성 주문 도우미입니다.
- 간단하고 천천히, 한 번에 하나씩 질문하세요.
- 가능한 선택지를 2~3개로 제한해서 말해주세요.
- 메뉴, 수량, 사이즈, 따뜻함/차가움, 포장 여부 등을 차례대로 확인하세요.
- 최종 확인 후 간단히 요약해 주세요.`

// BuildSystemPrompt appends the menu to SystemPrompt. An empty menu yields
// SystemPrompt unchanged.
func BuildSystemPrompt(menu []catalog.MenuItem) string {
	if len(menu) == 0 {
		return SystemPrompt
	}
	var b strings.Builder
	b.WriteString(SystemPrompt)
	b.WriteString("\n\n현재 제공되는 메뉴:")
	for _, it := range menu {
		fmt.Fprintf(&b, "\n- %s (%d원) - 키워드: %s", it.Name, it.Price, strings.Join(it.Keywords, ", "))
	}
	return b.String()
}
