package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllTasksFinished(t *testing.T) {
	// Наряд без задач выполненным не считается
	empty := WorkOrder{}
	assert.False(t, empty.AllTasksFinished())

	partial := WorkOrder{Tasks: []Task{
		{Finished: true},
		{Finished: false},
	}}
	assert.False(t, partial.AllTasksFinished())

	done := WorkOrder{Tasks: []Task{
		{Finished: true},
		{Finished: true},
	}}
	assert.True(t, done.AllTasksFinished())
}

func TestTaskFinalDate(t *testing.T) {
	start := day(2025, 7, 1)

	task := Task{StartDate: &start, ManDays: 3}
	final := task.FinalDate()
	assert.Equal(t, day(2025, 7, 3), *final, "Трехдневная задача заканчивается на третий день")

	oneDay := Task{StartDate: &start, ManDays: 1}
	assert.Equal(t, start, *oneDay.FinalDate())

	// Некорректная длительность трактуется как один день
	zero := Task{StartDate: &start, ManDays: 0}
	assert.Equal(t, start, *zero.FinalDate())

	noStart := Task{ManDays: 2}
	assert.Nil(t, noStart.FinalDate())
}

func TestTaskIsOverdue(t *testing.T) {
	start := day(2025, 7, 1)
	task := Task{StartDate: &start, ManDays: 2} // плановое завершение 2 июля

	assert.False(t, task.IsOverdue(day(2025, 7, 2)), "В плановый день задача не просрочена")
	assert.True(t, task.IsOverdue(day(2025, 7, 3)))

	finished := Task{StartDate: &start, ManDays: 2, Finished: true}
	assert.False(t, finished.IsOverdue(day(2025, 8, 1)), "Выполненная задача не бывает просроченной")

	var noStart Task
	assert.False(t, noStart.IsOverdue(time.Now()))
}

func TestTaskIsTemplate(t *testing.T) {
	routeID := uint(1)
	orderID := uint(2)

	template := Task{RouteID: &routeID}
	assert.True(t, template.IsTemplate())

	working := Task{RouteID: &routeID, WorkOrderID: &orderID}
	assert.False(t, working.IsTemplate(), "Копия в наряде шаблоном не является")

	manual := Task{WorkOrderID: &orderID}
	assert.False(t, manual.IsTemplate())
}
