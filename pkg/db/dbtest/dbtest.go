// Package dbtest 为各模块测试提供独立的内存 sqlite 数据库
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/posregister/pkg/db"
)

// New 创建一个独立命名的内存库并迁移给定模型，测试结束自动关闭
func New(t testing.TB, models ...any) *db.DB {
	t.Helper()

	database, err := db.Open(db.Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)

	if len(models) > 0 {
		require.NoError(t, database.AutoMigrate(models...))
	}

	t.Cleanup(func() { _ = database.Close() })
	return database
}
