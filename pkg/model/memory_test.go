package model_test

import (
	"testing"

	"github.com/m-mizutani/engram/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestNewMemoryID(t *testing.T) {
	id1 := model.NewMemoryID()
	id2 := model.NewMemoryID()

	gt.S(t, string(id1)).NotEqual("")
	gt.NotEqual(t, id1, id2)
}

func TestMemoryTypeValidate(t *testing.T) {
	for _, mt := range model.MemoryTypes() {
		gt.NoError(t, mt.Validate())
	}

	gt.Error(t, model.MemoryType("opinion").Validate())
	gt.Error(t, model.MemoryType("").Validate())
}
