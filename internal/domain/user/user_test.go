package user

import (
	"testing"

	"github.com/kailas-cloud/nodesearch/internal/domain/node"
)

func TestFromNode(t *testing.T) {
	u, err := FromNode(&node.Node{ID: "u1", Type: NodeType, Name: "admin", Properties: map[string]any{"superuser": "true"}})
	if err != nil {
		t.Fatalf("FromNode: %v", err)
	}
	if u.ID != "u1" || u.Name != "admin" || !u.Superuser {
		t.Errorf("got %+v", u)
	}

	var p node.Principal = u
	if p.PrincipalID() != "u1" || !p.IsSuperuser() {
		t.Error("principal view mismatch")
	}
}

func TestFromNode_WrongType(t *testing.T) {
	if _, err := FromNode(&node.Node{ID: "f", Type: "Folder"}); err == nil {
		t.Error("expected error for non-user node")
	}
	if _, err := FromNode(nil); err == nil {
		t.Error("expected error for nil node")
	}
}
