package monitoring

import (
	"testing"
)

func TestMonitor_GetMetrics(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	metrics := m.GetMetrics()

	// Check if our metric is present
	value, exists := metrics["test_metric"]
	if !exists {
		t.Fatalf("Expected 'test_metric' to be present in metrics, but it was not")
	}

	// Check value
	if value != 42 {
		t.Errorf("Expected 'test_metric' to be 42, but got %v", value)
	}

	// Check uptime presence
	_, exists = metrics["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

func TestMonitor_RecordCartOperation(t *testing.T) {
	m := NewMonitor()

	m.RecordCartOperation("add", "order1")
	m.RecordCartOperation("add", "order2")
	m.RecordCartOperation("remove", "order2")

	metrics := m.GetMetrics()

	if metrics["cart_add_total"] != 2 {
		t.Errorf("Expected 'cart_add_total' to be 2, but got %v", metrics["cart_add_total"])
	}
	if metrics["cart_remove_total"] != 1 {
		t.Errorf("Expected 'cart_remove_total' to be 1, but got %v", metrics["cart_remove_total"])
	}
	if metrics["cart_last_order"] != "order2" {
		t.Errorf("Expected 'cart_last_order' to be order2, but got %v", metrics["cart_last_order"])
	}
}

func TestMonitor_Reset(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	m.Reset()

	metrics := m.GetMetrics()

	// Our test metric should be gone, but uptime should still be there
	_, exists := metrics["test_metric"]
	if exists {
		t.Errorf("Expected 'test_metric' to be removed after Reset(), but it was present")
	}

	_, exists = metrics["uptime_seconds"]
	if !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}
