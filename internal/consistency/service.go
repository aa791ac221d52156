package consistency

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

// Persister records the writes a deletion causes.
// *persistence.Manager satisfies it.
type Persister interface {
	UpdateNovel(novel *types.Novel) error
	DeleteCharacter(novel *types.Novel, character *types.Character) error
	UpdateScene(scene *types.Scene) error
	DeleteScene(novel *types.Novel, scene *types.Scene) error
}

// Prompter asks the user to confirm a destructive action.
type Prompter interface {
	Confirm(message, title string) bool
}

// Notifier announces domain events. Emit must not block.
type Notifier interface {
	Emit(novel *types.Novel, event types.Event)
}

// Service deletes entities from a novel, asking for confirmation, keeping
// references intact and recording the resulting writes.
type Service struct {
	persister Persister
	prompter  Prompter
	notifier  Notifier
	logger    *slog.Logger
}

// NewService creates a Service. notifier and logger may be nil.
func NewService(persister Persister, prompter Prompter, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{persister: persister, prompter: prompter, notifier: notifier, logger: logger}
}

// DeleteCharacter removes the character and every reference to it. Unless
// forced, the user is asked first; false means they declined.
func (s *Service) DeleteCharacter(novel *types.Novel, c *types.Character, forced bool) (bool, error) {
	if novel == nil || c == nil {
		return false, types.ErrNilEntity
	}
	if novel.Character(c.ID) == nil {
		return false, fmt.Errorf("character %s: %w", c.ID, types.ErrNotFound)
	}
	if !forced && !s.confirm(fmt.Sprintf("Are you sure you want to delete the character %q?", c.Name), "Delete character") {
		return false, nil
	}

	res, err := RemoveCharacter(novel, c)
	if err != nil {
		return false, err
	}
	s.logger.Debug("character deleted",
		"novel", novel.ID, "character", c.ID,
		"conflicts", len(res.RemovedConflicts), "changes", len(res.Changes))
	return true, s.Apply(novel, res)
}

// DeleteScene removes the scene. Unless forced, the user is asked first and
// warned when the scene carries a word count.
func (s *Service) DeleteScene(novel *types.Novel, sc *types.Scene, forced bool) (bool, error) {
	if novel == nil || sc == nil {
		return false, types.ErrNilEntity
	}
	if novel.Scene(sc.ID) == nil {
		return false, fmt.Errorf("scene %s: %w", sc.ID, types.ErrNotFound)
	}
	if !forced && !s.confirm(sceneMessage(sc), "Delete scene") {
		return false, nil
	}

	res, err := RemoveScene(novel, sc)
	if err != nil {
		return false, err
	}
	s.logger.Debug("scene deleted", "novel", novel.ID, "scene", sc.ID)
	return true, s.Apply(novel, res)
}

// DeletePlot removes the plot and the scene values recorded for it.
func (s *Service) DeletePlot(novel *types.Novel, p *types.Plot) error {
	if novel == nil || p == nil {
		return types.ErrNilEntity
	}
	res, err := RemovePlot(novel, p)
	if err != nil {
		return fmt.Errorf("plot %s: %w", p.ID, err)
	}
	s.logger.Debug("plot deleted", "novel", novel.ID, "plot", p.ID, "changes", len(res.Changes))
	return s.Apply(novel, res)
}

// Apply records the writes of res and emits its events. The graph has
// already changed, so every change is attempted and events are emitted even
// when recording fails; the failures are returned joined.
func (s *Service) Apply(novel *types.Novel, res Result) error {
	var errs []error
	for _, ch := range res.Changes {
		if err := s.persist(novel, ch); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Kind, err))
		}
	}
	if s.notifier != nil {
		for _, e := range res.Events {
			s.notifier.Emit(novel, e)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) persist(novel *types.Novel, ch Change) error {
	switch ch.Kind {
	case CharacterDeleted:
		return s.persister.DeleteCharacter(novel, ch.Character)
	case SceneDeleted:
		return s.persister.DeleteScene(novel, ch.Scene)
	case NovelUpdated:
		return s.persister.UpdateNovel(novel)
	case SceneUpdated:
		return s.persister.UpdateScene(ch.Scene)
	default:
		return fmt.Errorf("unknown change kind %d", ch.Kind)
	}
}

func (s *Service) confirm(message, title string) bool {
	if s.prompter == nil {
		return false
	}
	return s.prompter.Confirm(message, title)
}

func sceneMessage(sc *types.Scene) string {
	msg := fmt.Sprintf("Are you sure you want to delete the scene %q?", sc.Title)
	if sc.WordCount > 0 {
		msg += fmt.Sprintf(" Word count statistics for its %d words will be lost.", sc.WordCount)
	}
	return msg
}
