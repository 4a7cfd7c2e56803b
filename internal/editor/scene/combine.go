package scene

import (
	"fmt"
	"strings"

	"venue-editor/internal/editor/models"

	"github.com/google/uuid"
)

// ============================================================
// Combine / uncombine
// ============================================================

const combinedReasonPrefix = "Combined with "

// Combine связывает юниты общей группой. Первый id — ведущий юнит,
// остальные блокируются со ссылкой на его имя; ручная блокировка юнита
// сохраняется. Меньше двух — no-op.
func (s *Scene) Combine(ids []string) (string, bool) {
	var members []models.SeatingUnit
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		u, ok := s.Unit(id)
		if !ok {
			continue
		}
		seen[id] = true
		members = append(members, u)
	}
	if len(members) < 2 {
		return "", false
	}

	lead := members[0]
	leadName := lead.Name
	if leadName == "" {
		leadName = lead.ID
	}
	reason := fmt.Sprintf("%s%s", combinedReasonPrefix, leadName)
	groupID := uuid.NewString()

	for i, m := range members {
		isLead := i == 0
		s.UpdateUnit(m.ID, func(u *models.SeatingUnit) {
			u.GroupID = groupID
			combineBlock := u.Blocked && strings.HasPrefix(u.BlockReason, combinedReasonPrefix)
			switch {
			case isLead && combineBlock:
				// блок от прежней группы
				u.Blocked = false
				u.BlockReason = ""
			case !isLead && (!u.Blocked || combineBlock):
				u.Blocked = true
				u.BlockReason = reason
			}
		})
	}
	return groupID, true
}

// Uncombine снимает группу и разблокирует юниты, заблокированные объединением.
func (s *Scene) Uncombine(groupID string) bool {
	if groupID == "" {
		return false
	}
	var ids []string
	for _, u := range s.units {
		if u.GroupID == groupID {
			ids = append(ids, u.ID)
		}
	}
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		s.UpdateUnit(id, func(u *models.SeatingUnit) {
			u.GroupID = ""
			if u.Blocked && strings.HasPrefix(u.BlockReason, combinedReasonPrefix) {
				u.Blocked = false
				u.BlockReason = ""
			}
		})
	}
	return true
}

// GroupMembers возвращает id юнитов группы в порядке сцены.
func (s *Scene) GroupMembers(groupID string) []string {
	var out []string
	if groupID == "" {
		return out
	}
	for _, u := range s.units {
		if u.GroupID == groupID {
			out = append(out, u.ID)
		}
	}
	return out
}
