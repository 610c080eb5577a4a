package mem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manualsvc/bundler/store"
)

func TestServiceByKey(t *testing.T) {
	assert := assert.New(t)

	s := New()
	s.PutService(store.ServiceProcess{Key: "SVC-001", Name: "Device Onboarding", OriginalXml: "<a/>"})

	// when
	service, err := s.ServiceByKey(context.Background(), "SVC-001")

	// then
	assert.Nil(err)
	assert.Equal("Device Onboarding", service.Name)

	// when service does not exist
	_, err = s.ServiceByKey(context.Background(), "SVC-999")

	// then
	assert.ErrorIs(err, store.ErrNotFound)
}

func TestSaveEditedXml(t *testing.T) {
	assert := assert.New(t)

	s := New()
	s.PutService(store.ServiceProcess{Key: "SVC-001", Name: "Device Onboarding"})

	// when
	err := s.SaveEditedXml(context.Background(), "SVC-001", "<b/>")

	// then
	assert.Nil(err)

	service, err := s.ServiceByKey(context.Background(), "SVC-001")
	assert.Nil(err)
	assert.Equal("<b/>", service.EditedXml)
	assert.False(service.UpdatedAt.IsZero())

	// when service does not exist
	err = s.SaveEditedXml(context.Background(), "SVC-999", "<b/>")

	// then
	assert.ErrorIs(err, store.ErrNotFound)
}

func TestUpsertDescription(t *testing.T) {
	assert := assert.New(t)

	s := New()

	// when inserted and updated
	assert.Nil(s.UpsertDescription(context.Background(), store.StepDescription{ServiceKey: "SVC-001", NodeId: "Task_A", Description: "first"}))
	assert.Nil(s.UpsertDescription(context.Background(), store.StepDescription{ServiceKey: "SVC-001", NodeId: "Task_A", Description: "second"}))
	assert.Nil(s.UpsertDescription(context.Background(), store.StepDescription{ServiceKey: "SVC-001", NodeId: "", Description: "service level"}))

	// then
	descriptions, err := s.DescriptionsByService(context.Background(), "SVC-001")
	assert.Nil(err)
	assert.Len(descriptions, 2)

	byNodeId := map[string]string{}
	for _, description := range descriptions {
		byNodeId[description.NodeId] = description.Description
	}
	assert.Equal("second", byNodeId["Task_A"])
	assert.Equal("service level", byNodeId[""])
}

func TestTransferJobs(t *testing.T) {
	assert := assert.New(t)

	s := New()

	job := store.TransferJob{Id: 1, ServiceKey: "SVC-001", State: store.JobRunning}

	// when
	assert.Nil(s.CreateTransferJob(context.Background(), job))

	job.State = store.JobCompleted
	job.FilesTotal = 4
	assert.Nil(s.UpdateTransferJob(context.Background(), job))

	// then
	jobs, err := s.TransferJobsByService(context.Background(), "SVC-001")
	assert.Nil(err)
	assert.Len(jobs, 1)
	assert.Equal(store.JobCompleted, jobs[0].State)
	assert.Equal(4, jobs[0].FilesTotal)

	// when job does not exist
	err = s.UpdateTransferJob(context.Background(), store.TransferJob{Id: 99, ServiceKey: "SVC-001"})

	// then
	assert.ErrorIs(err, store.ErrNotFound)
}
