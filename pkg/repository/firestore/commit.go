package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Commit applies cs inside one Firestore transaction. All reads (version
// checks and the open inbox lookup) happen before the first write, as
// Firestore transactions require.
func (f *Firestore) Commit(ctx context.Context, cs *model.ChangeSet) error {
	if err := cs.Validate(); err != nil {
		return goerr.Wrap(err, "invalid change set")
	}

	b := f.base
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var itemRef, projectRef *firestore.DocumentRef

		if cs.Item != nil {
			itemRef = b.collection(cs.TeamID, CollectionWorkItems).Doc(cs.Item.Ref.String())
			if err := checkVersion(tx, itemRef, cs.Item.ExpectedVersion); err != nil {
				return goerr.Wrap(err, "work item precondition failed", goerr.V(model.WorkItemKey, cs.Item.Ref.String()))
			}
		}
		if cs.Project != nil {
			projectRef = b.collection(cs.TeamID, CollectionProjects).Doc(projectDocID(cs.Project.ID))
			if err := checkVersion(tx, projectRef, cs.Project.ExpectedVersion); err != nil {
				return goerr.Wrap(err, "project precondition failed", goerr.V("project_id", cs.Project.ID))
			}
		}
		if err := checkSingleOpenInbox(tx, b, cs); err != nil {
			return err
		}

		if itemRef != nil {
			updates := []firestore.Update{
				{Path: "version", Value: cs.Item.NewVersion},
				{Path: "updated_at", Value: cs.Item.UpdatedAt},
			}
			if cs.Item.Status != "" {
				updates = append(updates, firestore.Update{Path: "status", Value: cs.Item.Status.String()})
			}
			if cs.Item.RACI != nil {
				updates = append(updates, firestore.Update{Path: "raci", Value: toRACIDoc(*cs.Item.RACI)})
			}
			if err := tx.Update(itemRef, updates); err != nil {
				return goerr.Wrap(err, "failed to update work item")
			}
		}
		if projectRef != nil {
			if err := tx.Update(projectRef, []firestore.Update{
				{Path: "version", Value: cs.Project.NewVersion},
				{Path: "updated_at", Value: cs.Project.UpdatedAt},
				{Path: "raci", Value: toRACIDoc(cs.Project.RACI)},
			}); err != nil {
				return goerr.Wrap(err, "failed to update project")
			}
		}

		for _, tr := range cs.Transitions {
			ref := b.collection(cs.TeamID, CollectionStatusTransitions).Doc(tr.ID)
			if err := tx.Create(ref, toTransitionDoc(tr)); err != nil {
				return goerr.Wrap(err, "failed to append status transition", goerr.V("id", tr.ID))
			}
		}
		for _, it := range cs.InboxItems {
			ref := b.collection(cs.TeamID, CollectionInboxItems).Doc(it.ID)
			if err := tx.Set(ref, toInboxDoc(it)); err != nil {
				return goerr.Wrap(err, "failed to write inbox item", goerr.V("id", it.ID))
			}
		}
		for _, l := range cs.AuditLogs {
			ref := b.collection(cs.TeamID, CollectionAuditLogs).Doc(l.ID)
			if err := tx.Create(ref, toAuditLogDoc(l)); err != nil {
				return goerr.Wrap(err, "failed to append audit log", goerr.V("id", l.ID))
			}
		}
		for _, e := range cs.TimeEntries {
			ref := b.collection(cs.TeamID, CollectionTimeEntries).Doc(e.ID)
			if err := tx.Set(ref, toTimeEntryDoc(e)); err != nil {
				return goerr.Wrap(err, "failed to write time entry", goerr.V("id", e.ID))
			}
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to commit change set", goerr.V(model.TeamIDKey, cs.TeamID))
	}
	return nil
}

func checkVersion(tx *firestore.Transaction, ref *firestore.DocumentRef, expected int64) error {
	snap, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "document not found", goerr.V("path", ref.Path))
		}
		return goerr.Wrap(err, "failed to read document", goerr.V("path", ref.Path))
	}

	v, err := snap.DataAt("version")
	if err != nil {
		return goerr.Wrap(err, "failed to read version", goerr.V("path", ref.Path))
	}
	actual, ok := v.(int64)
	if !ok {
		return goerr.New("version is not of type int64", goerr.V("value", v))
	}
	if actual != expected {
		return goerr.Wrap(interfaces.ErrConflict, "version mismatch",
			goerr.V("expected", expected),
			goerr.V("actual", actual))
	}
	return nil
}

func checkSingleOpenInbox(tx *firestore.Transaction, b *base, cs *model.ChangeSet) error {
	writes := make(map[string]*model.InboxItem, len(cs.InboxItems))
	for _, it := range cs.InboxItems {
		writes[it.ID] = it
	}

	checked := make(map[model.WorkItemRef]struct{})
	for _, it := range cs.InboxItems {
		if !it.IsOpen() {
			continue
		}
		if _, done := checked[it.Approvable]; done {
			continue
		}
		checked[it.Approvable] = struct{}{}

		open := 0
		for _, w := range writes {
			if w.Approvable == it.Approvable && w.IsOpen() {
				open++
			}
		}

		iter := tx.Documents(openInboxQuery(b, cs.TeamID, it.Approvable))
		for {
			snap, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return goerr.Wrap(err, "failed to query open inbox items")
			}
			if _, rewritten := writes[snap.Ref.ID]; rewritten {
				continue
			}
			open++
		}
		iter.Stop()

		if open > 1 {
			return goerr.Wrap(interfaces.ErrConflict, fmt.Sprintf("work item %s already has an open inbox item", it.Approvable),
				goerr.V(model.WorkItemKey, it.Approvable.String()))
		}
	}
	return nil
}
