// Package invoice 发票号生成：INV + 本地时间到秒 + 雪花序号
package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/wyfcoding/posregister/internal/sale/domain"
)

const layout = "20060102150405"

type snowflakeGenerator struct {
	node *snowflake.Node
}

// NewGenerator node 取值 0..1023，多进程部署时各进程需不同
func NewGenerator(node int64) (domain.InvoiceGenerator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("invoice generator: %w", err)
	}
	return &snowflakeGenerator{node: n}, nil
}

// Next 同一进程内任意并发下唯一
func (g *snowflakeGenerator) Next(now time.Time) string {
	return "INV" + now.Format(layout) + "-" + strings.ToUpper(g.node.Generate().Base36())
}
