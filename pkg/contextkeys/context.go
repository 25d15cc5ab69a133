package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// DBContextKey - ключ, по которому DBMiddleware кладет *gorm.DB в gin.Context
const DBContextKey = contextKey("db")

// AdminEmailKey - email администратора из JWT
const AdminEmailKey = contextKey("admin_email")

// FormIDKey - form_id из проверенного form token
const FormIDKey = contextKey("form_id")
