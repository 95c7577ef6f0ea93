// Package core содержит правила жизненного цикла проекта: переходы статусов,
// выбор исполнителя, допуск к взаимным отзывам и сводка рейтинга.
// Все проверки получают личность вызывающего явным параметром и никогда
// не читают её из контекста запроса.
package core

import "freelance/models"

// Identity описывает аутентифицированного пользователя, передается в каждую операцию
type Identity struct {
	ID       int
	Username string
	Role     models.Role
}

func (id Identity) IsClient() bool {
	return id.Role == models.RoleClient
}

func (id Identity) IsContractor() bool {
	return id.Role == models.RoleContractor
}
