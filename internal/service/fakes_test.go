package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"mining-scheduler/internal/model"
	"mining-scheduler/pkg/utils"
)

// In-memory fakes for the repository contracts. The unit of work holds a
// mutex for the duration of Run, mirroring the row-lock serialization the
// real store provides.

type fakeUnitOfWork struct {
	mu      sync.Mutex
	runErr  error
	runHook func()
}

func (u *fakeUnitOfWork) Run(fn func(opts ...utils.DBOption) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.runHook != nil {
		u.runHook()
	}
	if err := fn(); err != nil {
		return err
	}
	return u.runErr
}

type fakeTaskRepo struct {
	mu          sync.Mutex
	tasks       map[uint]*model.ScheduledTask
	nextID      uint
	updateCount int
	findErr     error
	updateErr   map[uint]error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		tasks:     make(map[uint]*model.ScheduledTask),
		updateErr: make(map[uint]error),
	}
}

func (r *fakeTaskRepo) add(task model.ScheduledTask) uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	task.ID = r.nextID
	r.tasks[task.ID] = &task
	return task.ID
}

func (r *fakeTaskRepo) get(id uint) model.ScheduledTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.tasks[id]
}

func (r *fakeTaskRepo) Find(ctx context.Context, param *model.GetScheduledTaskParam, opts ...utils.DBOption) ([]model.ScheduledTask, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.ScheduledTask
	for _, task := range r.tasks {
		if len(param.Statuses) > 0 {
			match := false
			for _, status := range param.Statuses {
				if task.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if param.ScheduleType != nil && task.ScheduleType != *param.ScheduleType {
			continue
		}
		if param.MinAttempts != nil && task.Attempts < *param.MinAttempts {
			continue
		}
		if param.DataSourceID != nil && task.DataSourceID != *param.DataSourceID {
			continue
		}
		out = append(out, *task)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func (r *fakeTaskRepo) GetLatest(ctx context.Context, dataSourceID uint, scheduleType model.ScheduleType, opts ...utils.DBOption) (*model.ScheduledTask, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *model.ScheduledTask
	for _, task := range r.tasks {
		if task.DataSourceID != dataSourceID || task.ScheduleType != scheduleType {
			continue
		}
		if latest == nil || task.StartedAt.After(latest.StartedAt) {
			latest = task
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *model.ScheduledTask, opts ...utils.DBOption) error {
	task.ID = r.add(*task)
	return nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *model.ScheduledTask, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.updateErr[task.ID]; err != nil {
		return err
	}
	stored, ok := r.tasks[task.ID]
	if !ok {
		return errors.New("task not found")
	}
	stored.Status = task.Status
	stored.StartedAt = task.StartedAt
	stored.LockedAt = task.LockedAt
	stored.EndedAt = task.EndedAt
	stored.Attempts = task.Attempts
	stored.ResultSummary = task.ResultSummary
	r.updateCount++
	return nil
}

func (r *fakeTaskRepo) FindByIDForUpdate(ctx context.Context, id uint, opts ...utils.DBOption) (*model.ScheduledTask, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

type fakeDataSourceRepo struct {
	mu      sync.Mutex
	sources map[uint]*model.DataSource
	getErr  error
}

func newFakeDataSourceRepo() *fakeDataSourceRepo {
	return &fakeDataSourceRepo{sources: make(map[uint]*model.DataSource)}
}

func (r *fakeDataSourceRepo) add(source model.DataSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.ID] = &source
}

func (r *fakeDataSourceRepo) Get(ctx context.Context, param *model.GetDataSourceParam, opts ...utils.DBOption) ([]model.DataSource, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.DataSource
	for _, source := range r.sources {
		if param.IsActive != nil && source.IsActive != *param.IsActive {
			continue
		}
		out = append(out, *source)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDataSourceRepo) FindByID(ctx context.Context, id uint, opts ...utils.DBOption) (*model.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	source, ok := r.sources[id]
	if !ok {
		return nil, nil
	}
	copied := *source
	return &copied, nil
}

type fakeCompanyRepo struct {
	companies []model.Company
	err       error
}

func (r *fakeCompanyRepo) GetAll(ctx context.Context) ([]model.Company, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.companies, nil
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched [][]uint
}

func (d *fakeDispatcher) TriggerDataSources(ctx context.Context, taskIDs []uint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = append(d.dispatched, taskIDs)
}

func (d *fakeDispatcher) allIDs() []uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []uint
	for _, batch := range d.dispatched {
		out = append(out, batch...)
	}
	return out
}
