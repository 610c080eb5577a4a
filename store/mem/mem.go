// Package mem provides an in-memory store, used for tests and the standalone
// daemon mode.
package mem

import (
	"context"
	"sync"
	"time"

	"github.com/manualsvc/bundler/store"
)

func New() *Store {
	return &Store{
		services:     map[string]store.ServiceProcess{},
		subprocesses: map[string][]store.Subprocess{},
		steps:        map[string][]store.MasterDataStep{},
		descriptions: map[string]map[string]store.StepDescription{},
		jobs:         map[string][]store.TransferJob{},
	}
}

type Store struct {
	mutex sync.RWMutex

	services     map[string]store.ServiceProcess
	subprocesses map[string][]store.Subprocess
	steps        map[string][]store.MasterDataStep
	descriptions map[string]map[string]store.StepDescription // service key -> node id
	jobs         map[string][]store.TransferJob
}

func (s *Store) ServiceByKey(_ context.Context, serviceKey string) (store.ServiceProcess, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	service, ok := s.services[serviceKey]
	if !ok {
		return store.ServiceProcess{}, store.ErrNotFound
	}
	return service, nil
}

func (s *Store) SaveEditedXml(_ context.Context, serviceKey string, editedXml string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	service, ok := s.services[serviceKey]
	if !ok {
		return store.ErrNotFound
	}

	service.EditedXml = editedXml
	service.UpdatedAt = time.Now()
	s.services[serviceKey] = service
	return nil
}

func (s *Store) SubprocessesByService(_ context.Context, serviceKey string) ([]store.Subprocess, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	subprocesses := make([]store.Subprocess, len(s.subprocesses[serviceKey]))
	copy(subprocesses, s.subprocesses[serviceKey])
	return subprocesses, nil
}

func (s *Store) StepsByService(_ context.Context, serviceKey string) ([]store.MasterDataStep, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	steps := make([]store.MasterDataStep, len(s.steps[serviceKey]))
	copy(steps, s.steps[serviceKey])
	return steps, nil
}

func (s *Store) DescriptionsByService(_ context.Context, serviceKey string) ([]store.StepDescription, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var descriptions []store.StepDescription
	for _, description := range s.descriptions[serviceKey] {
		descriptions = append(descriptions, description)
	}
	return descriptions, nil
}

func (s *Store) UpsertDescription(_ context.Context, description store.StepDescription) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	byNodeId, ok := s.descriptions[description.ServiceKey]
	if !ok {
		byNodeId = map[string]store.StepDescription{}
		s.descriptions[description.ServiceKey] = byNodeId
	}

	description.UpdatedAt = time.Now()
	byNodeId[description.NodeId] = description
	return nil
}

func (s *Store) CreateTransferJob(_ context.Context, job store.TransferJob) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.jobs[job.ServiceKey] = append(s.jobs[job.ServiceKey], job)
	return nil
}

func (s *Store) UpdateTransferJob(_ context.Context, job store.TransferJob) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	jobs := s.jobs[job.ServiceKey]
	for i := range jobs {
		if jobs[i].Id == job.Id {
			job.UpdatedAt = time.Now()
			jobs[i] = job
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) TransferJobsByService(_ context.Context, serviceKey string) ([]store.TransferJob, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	jobs := make([]store.TransferJob, len(s.jobs[serviceKey]))
	copy(jobs, s.jobs[serviceKey])
	return jobs, nil
}

// PutService seeds or replaces a service.
func (s *Store) PutService(service store.ServiceProcess) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.services[service.Key] = service
}

// PutSubprocess seeds a subprocess.
func (s *Store) PutSubprocess(subprocess store.Subprocess) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.subprocesses[subprocess.ServiceKey] = append(s.subprocesses[subprocess.ServiceKey], subprocess)
}

// PutStep seeds a master data step.
func (s *Store) PutStep(step store.MasterDataStep) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.steps[step.ServiceKey] = append(s.steps[step.ServiceKey], step)
}
