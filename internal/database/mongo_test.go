package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/japb1998/contacts/internal/model"
)

func TestMatchStage(t *testing.T) {
	assert.Empty(t, matchStage(ContactFilter{}))
	assert.Empty(t, matchStage(ContactFilter{Category: model.CategoryAll}))

	m := matchStage(ContactFilter{Search: "a.b+", Category: model.CategoryWork})
	assert.Equal(t, model.CategoryWork, m["category"])

	or, ok := m["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)
	re := or[0].(bson.M)["name"].(bson.Regex)
	assert.Equal(t, `a\.b\+`, re.Pattern)
	assert.Equal(t, "i", re.Options)
}

func TestPagePipeline(t *testing.T) {
	p := pagePipeline(ContactFilter{}, PaginationOps{Skip: 20, Limit: 10})
	require.Len(t, p, 2)
	assert.Equal(t, "$match", p[0][0].Key)
	assert.Equal(t, "$facet", p[1][0].Key)

	facet := p[1][0].Value.(bson.M)
	data := facet["data"].(bson.A)
	require.Len(t, data, 3)
	assert.Equal(t, bson.M{"$skip": 20}, data[1])
	assert.Equal(t, bson.M{"$limit": 10}, data[2])
	assert.Equal(t, bson.A{bson.M{"$count": "total"}}, facet["meta"])
}

func TestUpdateDocument(t *testing.T) {
	name := "Bob"
	cat := model.CategoryFriends
	set := updateDocument(ContactPatch{Name: &name, Category: &cat})
	assert.Equal(t, bson.M{"name": "Bob", "category": model.CategoryFriends}, set)
}
