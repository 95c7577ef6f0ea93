package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"freelance/internal/common"
	"freelance/internal/core"
	"freelance/models"
)

func openProject() *models.Project {
	return &models.Project{
		ID:               1,
		Title:            "Test Project",
		ClientID:         10,
		Status:           models.StatusOpen,
		ProposalDeadline: time.Now().Add(24 * time.Hour),
	}
}

func assignedProject(status models.ProjectStatus) *models.Project {
	contractorID := 20
	p := openProject()
	p.Status = status
	p.AssignedContractorID = &contractorID
	return p
}

var (
	client     = core.Identity{ID: 10, Username: "client1", Role: models.RoleClient}
	contractor = core.Identity{ID: 20, Username: "contractor1", Role: models.RoleContractor}
	stranger   = core.Identity{ID: 30, Username: "stranger", Role: models.RoleContractor}
)

func TestCanAssign(t *testing.T) {
	require.NoError(t, core.CanAssign(openProject(), client))

	// не владелец
	require.ErrorIs(t, core.CanAssign(openProject(), stranger), common.ErrForbidden)

	// без личности
	require.ErrorIs(t, core.CanAssign(openProject(), core.Identity{}), common.ErrUnauthenticated)

	// исполнитель уже назначен, повторное назначение невозможно
	require.ErrorIs(t, core.CanAssign(assignedProject(models.StatusInProcess), client), common.ErrInvalidState)

	// дедлайн прошел без выбора
	p := openProject()
	p.Status = models.StatusNoBid
	require.ErrorIs(t, core.CanAssign(p, client), common.ErrInvalidState)
}

func TestCanRequestClose(t *testing.T) {
	require.NoError(t, core.CanRequestClose(assignedProject(models.StatusInProcess), contractor))

	// только назначенный исполнитель
	require.ErrorIs(t, core.CanRequestClose(assignedProject(models.StatusInProcess), stranger), common.ErrForbidden)
	require.ErrorIs(t, core.CanRequestClose(assignedProject(models.StatusInProcess), client), common.ErrForbidden)
	require.ErrorIs(t, core.CanRequestClose(openProject(), contractor), common.ErrForbidden)

	// закрытие уже запрошено
	require.ErrorIs(t, core.CanRequestClose(assignedProject(models.StatusRequestClose), contractor), common.ErrInvalidState)
}

func TestCanDecide(t *testing.T) {
	require.NoError(t, core.CanDecide(assignedProject(models.StatusRequestClose), client))

	require.ErrorIs(t, core.CanDecide(assignedProject(models.StatusRequestClose), contractor), common.ErrForbidden)

	// нельзя закрыть проект, который еще open или в работе
	require.ErrorIs(t, core.CanDecide(openProject(), client), common.ErrInvalidState)
	require.ErrorIs(t, core.CanDecide(assignedProject(models.StatusInProcess), client), common.ErrInvalidState)
	require.ErrorIs(t, core.CanDecide(assignedProject(models.StatusClosed), client), common.ErrInvalidState)
}

func TestCanUpload(t *testing.T) {
	require.NoError(t, core.CanUpload(assignedProject(models.StatusInProcess), contractor))
	require.NoError(t, core.CanUpload(assignedProject(models.StatusRequestClose), contractor))

	require.ErrorIs(t, core.CanUpload(assignedProject(models.StatusInProcess), client), common.ErrForbidden)
	require.ErrorIs(t, core.CanUpload(assignedProject(models.StatusClosed), contractor), common.ErrInvalidState)
}

func TestDeadlineExpired(t *testing.T) {
	now := time.Now()

	p := openProject()
	require.False(t, core.DeadlineExpired(p, now))
	require.True(t, core.DeadlineExpired(p, now.Add(48*time.Hour)))

	// уже переведенный проект повторно не трогается
	p.Status = models.StatusNoBid
	require.False(t, core.DeadlineExpired(p, now.Add(48*time.Hour)))

	// назначенные проекты дедлайн предложений не затрагивает
	require.False(t, core.DeadlineExpired(assignedProject(models.StatusInProcess), now.Add(48*time.Hour)))
}
