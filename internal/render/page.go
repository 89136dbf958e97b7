package render

import "html/template"

// EmptyGraphPage is rendered in place of a network when there are no nodes.
const EmptyGraphPage = "<h3>No data to visualize. Graph is empty.</h3>"

const visNetworkURL = "https://unpkg.com/vis-network@9.1.9/standalone/umd/vis-network.min.js"

var pageTemplate = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="{{.ScriptURL}}"></script>
<style>
  body { margin: 0; background-color: #222222; }
  #kg-network { width: {{.Width}}; height: {{.Height}}; background-color: #47414167; }
</style>
</head>
<body>
<div id="kg-legend" style="position: absolute; top: 10px; left: 10px; background: rgba(50, 50, 50, 0.9); padding: 15px; border-radius: 8px; color: white; font-family: Arial, sans-serif; font-size: 14px; box-shadow: 0 4px 8px rgba(0,0,0,0.3); z-index: 1000; cursor: grab; max-width: 250px;">
  <h4 style="margin-top: 0; margin-bottom: 12px; color: #87CEEB;">Node Types</h4>
  {{- range .Legend}}
  <div style="display: flex; align-items: center; margin-bottom: 8px;">
    <span style="display: inline-block; width: 20px; height: 20px; border-radius: 50%; background-color: {{.Color}}; margin-right: 10px; border: 1px solid #777;"></span>
    <span>{{.Type}} ({{.Count}})</span>
  </div>
  {{- end}}
  <div style="margin-top: 10px; padding-top: 10px; border-top: 1px solid #666; font-size: 12px; color: #aaa;">
    <div>Total: {{.NodeCount}} nodes, {{.EdgeCount}} edges</div>
  </div>
</div>
<div id="kg-network"></div>
<script>
  var nodes = new vis.DataSet({{.Nodes}});
  var edges = new vis.DataSet({{.Edges}});
  var options = {{.Options}};
  var network = new vis.Network(document.getElementById("kg-network"), { nodes: nodes, edges: edges }, options);

  document.addEventListener("DOMContentLoaded", function () {
    var legend = document.getElementById("kg-legend");
    var dragging = false, startX = 0, startY = 0, offsetX = 0, offsetY = 0;
    legend.addEventListener("mousedown", function (e) {
      startX = e.clientX - offsetX;
      startY = e.clientY - offsetY;
      dragging = true;
      legend.style.cursor = "grabbing";
    });
    document.addEventListener("mouseup", function () {
      dragging = false;
      legend.style.cursor = "grab";
    });
    document.addEventListener("mousemove", function (e) {
      if (!dragging) { return; }
      e.preventDefault();
      offsetX = e.clientX - startX;
      offsetY = e.clientY - startY;
      legend.style.transform = "translate3d(" + offsetX + "px, " + offsetY + "px, 0)";
    });
  });
</script>
</body>
</html>
`))
