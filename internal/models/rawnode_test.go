package models

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `
<Data>
  <執照號碼>108建字第0001號</執照號碼>
  <執照號碼>duplicate-ignored</執照號碼>
  <建物資訊>
    <棟數>2</棟數>
    <地上層數>12</地上層數>
  </建物資訊>
  <建築地點>
    <地址>信義路一段1號</地址>
    <地址> </地址>
    <地址>信義路一段3號</地址>
  </建築地點>
  <變更概要>
    <核准文號 變使准="文號A" 變使竣工="文號B"/>
  </變更概要>
</Data>`

func decodeSample(t *testing.T) *RawNode {
	t.Helper()
	var n RawNode
	dec := xml.NewDecoder(strings.NewReader(sampleXML))
	require.NoError(t, dec.Decode(&n))
	return &n
}

func TestRawNode_FirstMatchWins(t *testing.T) {
	n := decodeSample(t)
	assert.Equal(t, "108建字第0001號", n.ChildText("執照號碼"))
}

func TestRawNode_AbsentTagIsEmpty(t *testing.T) {
	n := decodeSample(t)
	assert.Nil(t, n.Child("不存在"))
	assert.Equal(t, "", n.ChildText("不存在"))
}

func TestRawNode_NestedGroup(t *testing.T) {
	n := decodeSample(t)
	info := n.Child("建物資訊")
	require.NotNil(t, info)
	assert.Equal(t, "2", info.ChildText("棟數"))
	assert.Equal(t, "12", info.ChildText("地上層數"))
	assert.Equal(t, "", info.ChildText("戶數"))
}

func TestRawNode_RepeatedChildrenInOrder(t *testing.T) {
	n := decodeSample(t)
	loc := n.Child("建築地點")
	require.NotNil(t, loc)
	addrs := loc.ChildAll("地址")
	require.Len(t, addrs, 3)
	assert.Equal(t, "信義路一段1號", addrs[0].Text)
	assert.Equal(t, "", addrs[1].Text) // blank stays blank; callers skip it
	assert.Equal(t, "信義路一段3號", addrs[2].Text)
}

func TestRawNode_Attributes(t *testing.T) {
	n := decodeSample(t)
	ch := n.Child("變更概要")
	require.NotNil(t, ch)
	aps := ch.ChildAll("核准文號")
	require.Len(t, aps, 1)
	assert.Equal(t, "文號A", aps[0].Attr("變使准"))
	assert.Equal(t, "文號B", aps[0].Attr("變使竣工"))
	assert.Equal(t, "", aps[0].Attr("missing"))
}

func TestRawNode_JSONShape(t *testing.T) {
	n := decodeSample(t)
	b, err := json.Marshal(n)
	require.NoError(t, err)

	var round map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &round))
	assert.Equal(t, "Data", round["tag"])
	// attrs and children are always present, never null
	assert.NotNil(t, round["attrs"])
	assert.NotNil(t, round["children"])
}
