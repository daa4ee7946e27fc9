package middleware

import (
	"context"
	"reflect"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ==================== 审计上下文 ====================

// AuditContext Key
type auditContextKey struct{}

// AuditInfo 审计信息
type AuditInfo struct {
	Subject string
}

// WithAuditInfo 注入审计信息到 context
func WithAuditInfo(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, auditContextKey{}, &AuditInfo{Subject: subject})
}

// GetAuditInfo 从 context 获取审计信息
func GetAuditInfo(ctx context.Context) *AuditInfo {
	if info, ok := ctx.Value(auditContextKey{}).(*AuditInfo); ok {
		return info
	}
	return nil
}

// GetAuditSubject 从 context 获取审计用户
func GetAuditSubject(ctx context.Context) string {
	if info := GetAuditInfo(ctx); info != nil {
		return info.Subject
	}
	return ""
}

// ==================== Gin 中间件 ====================

// AuditContext 审计上下文中间件
// 将令牌中的 subject 注入到 request context，供 GORM 回调使用
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if subject := GetSubject(c); subject != "" {
			ctx := WithAuditInfo(c.Request.Context(), subject)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

// ==================== GORM 回调 ====================

// RegisterAuditCallbacks 注册 GORM 审计回调
// 在 Create/Update 时自动填充 CreatedBy/UpdatedBy
func RegisterAuditCallbacks(db *gorm.DB) error {
	// Create 回调
	err := db.Callback().Create().Before("gorm:create").Register("audit:create", func(tx *gorm.DB) {
		if tx.Statement.Context == nil {
			return
		}

		subject := GetAuditSubject(tx.Statement.Context)
		if subject == "" {
			return
		}

		setAuditField(tx, "CreatedBy", subject, false)
		setAuditField(tx, "UpdatedBy", subject, true)
	})
	if err != nil {
		return err
	}

	// Update 回调
	return db.Callback().Update().Before("gorm:update").Register("audit:update", func(tx *gorm.DB) {
		if tx.Statement.Context == nil {
			return
		}

		subject := GetAuditSubject(tx.Statement.Context)
		if subject == "" {
			return
		}

		// 仅设置 UpdatedBy
		setAuditField(tx, "UpdatedBy", subject, true)
	})
}

// setAuditField 设置审计字段，overwrite 为 false 时只填充空值
func setAuditField(tx *gorm.DB, fieldName string, value string, overwrite bool) {
	if tx.Statement.Schema == nil {
		return
	}

	field := tx.Statement.Schema.LookUpField(fieldName)
	if field == nil {
		return
	}

	switch tx.Statement.ReflectValue.Kind() {
	case reflect.Struct:
		// 单个对象
		if _, isZero := field.ValueOf(tx.Statement.Context, tx.Statement.ReflectValue); isZero || overwrite {
			_ = field.Set(tx.Statement.Context, tx.Statement.ReflectValue, value)
		}
	case reflect.Slice:
		// 批量插入
		for i := 0; i < tx.Statement.ReflectValue.Len(); i++ {
			rv := tx.Statement.ReflectValue.Index(i)
			if _, isZero := field.ValueOf(tx.Statement.Context, rv); isZero || overwrite {
				_ = field.Set(tx.Statement.Context, rv, value)
			}
		}
	}
}
